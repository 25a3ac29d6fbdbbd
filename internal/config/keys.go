package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "api.base_url", typ: kString, env: "DOCDASH_API_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.API.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.API.BaseURL },
	},
	{
		key: "api.timeout_seconds", typ: kInt, env: "DOCDASH_API_TIMEOUT_SECONDS",
		apply:   func(cfg *Config, v any) { cfg.API.TimeoutSeconds = v.(int) },
		extract: func(cfg Config) any { return cfg.API.TimeoutSeconds },
	},
	{
		key: "log.level", typ: kString, env: "DOCDASH_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "ui.color", typ: kBool, env: "DOCDASH_UI_COLOR",
		apply:   func(cfg *Config, v any) { cfg.UI.Color = v.(bool) },
		extract: func(cfg Config) any { return cfg.UI.Color },
	},
	{
		key: "dashboard.recent_limit", typ: kInt, env: "DOCDASH_DASHBOARD_RECENT_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Dashboard.RecentLimit = v.(int) },
		extract: func(cfg Config) any { return cfg.Dashboard.RecentLimit },
	},
	{
		key: "search.limit", typ: kInt, env: "DOCDASH_SEARCH_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Search.Limit = v.(int) },
		extract: func(cfg Config) any { return cfg.Search.Limit },
	},
	{
		key: "storage.data_dir", typ: kString, env: "DOCDASH_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		// The credential is managed by login/logout, never by `config set`.
		// The env var exists for scripted use.
		key: "auth.token", typ: kString, env: "DOCDASH_AUTH_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) {},
		extract: func(cfg Config) any { return "" },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" || s.secret {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
