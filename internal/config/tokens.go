package config

import (
	"os"
	"strings"
)

const (
	secretService = "docdash"
	tokenAccount  = "api_token"
	tokenEnvVar   = "DOCDASH_AUTH_TOKEN"
)

// TokenStore keeps the API credential in the platform secret store: macOS
// Keychain via the security CLI, a mode-0600 secrets file elsewhere. The
// DOCDASH_AUTH_TOKEN environment variable takes precedence for scripted
// use and is never written back.
type TokenStore struct{}

func NewTokenStore() TokenStore {
	return TokenStore{}
}

// GetToken returns the stored credential, or "" when none exists. A missing
// secret is not an error.
func (TokenStore) GetToken() (string, error) {
	if env := os.Getenv(tokenEnvVar); env != "" {
		return env, nil
	}
	out, err := keychainGet(secretService, tokenAccount)
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(string(out)), nil
}

func (TokenStore) SetToken(token string) error {
	return keychainSet(secretService, tokenAccount, token)
}

func (TokenStore) DeleteToken() error {
	return keychainDelete(secretService, tokenAccount)
}
