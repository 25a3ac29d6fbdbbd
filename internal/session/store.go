// Package session tracks the authentication credential and the signed-in
// user's profile. The token lives in the platform secret store with an
// in-memory mirror; the profile is best-effort and its absence never forces
// a logout.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/efecanulku/docdash/internal/gateway"
)

// TokenStore abstracts the persistent credential slot. Implementations
// return an empty string, not an error, when no token is stored.
type TokenStore interface {
	GetToken() (string, error)
	SetToken(token string) error
	DeleteToken() error
}

// Store holds the session state. The registered navigation hook runs on
// every logout, taking the UI back to the login entry point.
type Store struct {
	mu       sync.Mutex
	tokens   TokenStore
	token    string
	user     *gateway.User
	onLogout func()
}

func NewStore(tokens TokenStore) (*Store, error) {
	token, err := tokens.GetToken()
	if err != nil {
		return nil, fmt.Errorf("reading stored token: %w", err)
	}
	return &Store{tokens: tokens, token: token}, nil
}

// SetLogoutHook registers the navigation callback invoked by Logout.
func (s *Store) SetLogoutHook(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = fn
}

// Token returns the in-memory mirror of the persisted credential, or ""
// when unauthenticated.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsAuthenticated is true iff a token is present. The token is not
// validated against the server; a rejected credential surfaces as a 401 on
// the first authenticated request.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Login exchanges credentials for a token and persists it. The profile is
// loaded best-effort afterwards by the caller.
func (s *Store) Login(ctx context.Context, gw *gateway.Client, email, password string) error {
	token, err := gw.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	if err := s.tokens.SetToken(token.AccessToken); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	s.mu.Lock()
	s.token = token.AccessToken
	s.mu.Unlock()
	return nil
}

// LoadProfile fetches the authenticated user's profile. Failure is logged
// and the previous profile kept: not being able to confirm identity is not
// the same as a rejected credential.
func (s *Store) LoadProfile(ctx context.Context, gw *gateway.Client) {
	user, err := gw.Me(ctx)
	if err != nil {
		slog.Warn("failed to load user profile", "error", err)
		return
	}
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
}

// User returns the cached profile, or false when it was never loaded.
func (s *Store) User() (gateway.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return gateway.User{}, false
	}
	return *s.user, true
}

// Logout clears the persisted token and the in-memory profile, then runs
// the navigation hook. Safe to call when already logged out.
func (s *Store) Logout() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	hook := s.onLogout
	s.mu.Unlock()

	if err := s.tokens.DeleteToken(); err != nil {
		slog.Warn("failed to clear stored token", "error", err)
	}
	if hook != nil {
		hook()
	}
}
