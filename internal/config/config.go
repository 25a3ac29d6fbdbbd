package config

import (
	"github.com/joho/godotenv"
)

type Config struct {
	API       APIConfig
	Log       LogConfig
	UI        UIConfig
	Dashboard DashboardConfig
	Search    SearchConfig
	Storage   StorageConfig
}

type APIConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

type LogConfig struct {
	Level string
}

type UIConfig struct {
	Color bool
}

type DashboardConfig struct {
	RecentLimit int
}

type SearchConfig struct {
	Limit int
}

type StorageConfig struct {
	DataDir string
}

func defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL:        "http://127.0.0.1:8000",
			TimeoutSeconds: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Color: true,
		},
		Dashboard: DashboardConfig{
			RecentLimit: 5,
		},
		Search: SearchConfig{
			Limit: 20,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
	}
}

// Load reads configuration from the platform-native backend and environment
// variables.
//
// On macOS the backend is UserDefaults (domain: com.docdash.app); on Linux
// it is a JSON file at $XDG_CONFIG_HOME/docdash/config.json. A .env file in
// the working directory is honored, and DOCDASH_* environment variables
// override backend values on all platforms.
func Load() (Config, error) {
	_ = godotenv.Load()
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}
