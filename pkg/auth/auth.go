// Package auth holds the client's authentication state: an opaque bearer
// token persisted in the durable state store and mirrored into the API
// client. No server validation happens here; the journey manager probes the
// token's liveness separately.
package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pctrack/pkg/api"
	"pctrack/pkg/config"
)

// Manager is the authentication state holder.
type Manager struct {
	state *config.StateStore
	api   *api.Client

	mu            sync.Mutex
	authenticated bool
}

// NewManager restores any previously saved token. If one exists the session
// is marked authenticated and the token is attached to the API client.
func NewManager(state *config.StateStore, client *api.Client) *Manager {
	m := &Manager{state: state, api: client}
	if token, ok := state.GetString(config.KeyAuthToken); ok && token != "" {
		m.authenticated = true
		client.SetAuthToken(token)
	}
	return m
}

// Login stores the token durably, marks the session authenticated and
// attaches the token to the API client.
func (m *Manager) Login(token string) error {
	if err := m.state.Set(config.KeyAuthToken, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	m.api.SetAuthToken(token)

	m.mu.Lock()
	m.authenticated = true
	m.mu.Unlock()
	return nil
}

// Logout clears the token and every other durable state key, detaches the
// token from the API client and marks the session unauthenticated. Removal
// is verified by re-reading each key.
func (m *Manager) Logout() error {
	if err := m.state.Delete(config.AllStateKeys...); err != nil {
		return err
	}
	for _, key := range config.AllStateKeys {
		if m.state.Has(key) {
			return fmt.Errorf("state key %q survived logout", key)
		}
	}
	m.api.SetAuthToken("")

	m.mu.Lock()
	m.authenticated = false
	m.mu.Unlock()
	return nil
}

// IsAuthenticated reports whether a session token is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticated
}

// Token returns the stored bearer token, "" when logged out.
func (m *Manager) Token() string {
	token, _ := m.state.GetString(config.KeyAuthToken)
	return token
}

// TokenInfo describes the claims of a JWT-shaped bearer token.
type TokenInfo struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenInfo parses the stored token's claims without verifying the
// signature. The client has no key and treats the token as opaque for
// every other purpose. Returns an error for missing or non-JWT tokens.
func (m *Manager) TokenInfo() (*TokenInfo, error) {
	raw := m.Token()
	if raw == "" {
		return nil, fmt.Errorf("no token stored")
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("token is not a JWT: %w", err)
	}

	info := &TokenInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
