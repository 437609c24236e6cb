// Package auth manages the client's login state: exchanging
// credentials for a bearer token, caching it on disk, and handing it
// to the HTTP layer on demand.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"devplanet/internal/apiclient"
)

// loginAPI is the slice of the backend client the manager needs.
type loginAPI interface {
	Login(ctx context.Context, email, password string) (*apiclient.LoginResponse, error)
}

// Manager holds the current credentials and drives the anonymous ->
// authenticating -> authenticated lifecycle.
type Manager struct {
	api    loginAPI
	store  *Store
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	state State
	creds *Credentials
}

// NewManager builds a manager that logs in through api and caches
// credentials in store.
func NewManager(api loginAPI, store *Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		api:    api,
		store:  store,
		logger: logger,
		now:    time.Now,
		state:  StateAnonymous,
	}
}

// Login exchanges credentials for a bearer token and caches it. On
// failure the manager returns to the anonymous state.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.mu.Lock()
	m.state = StateAuthenticating
	m.mu.Unlock()

	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.mu.Lock()
		m.state = StateAnonymous
		m.creds = nil
		m.mu.Unlock()
		return fmt.Errorf("login failed: %w", err)
	}

	creds := &Credentials{
		AccessToken: resp.AccessToken,
		User:        resp.User,
		SavedAt:     m.now().UTC().Format(time.RFC3339),
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.creds = creds
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Save(creds); err != nil {
			// The session still works; only persistence failed.
			m.logger.Warn("Failed to cache token", "error", err)
		}
	}

	m.logger.Info("Logged in",
		"user", resp.User.Username,
		"token", MaskToken(resp.AccessToken))
	return nil
}

// LoadCached restores credentials from the disk cache. Returns
// ErrNoCachedToken when nothing is cached.
func (m *Manager) LoadCached() error {
	if m.store == nil {
		return ErrNoCachedToken
	}
	creds, err := m.store.Load()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.creds = creds
	m.mu.Unlock()

	m.logger.Debug("Restored cached credentials", "user", creds.User.Username)
	return nil
}

// Logout clears the in-memory credentials and the disk cache.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.state = StateAnonymous
	m.creds = nil
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Clear(); err != nil {
			return err
		}
	}
	m.logger.Info("Logged out")
	return nil
}

// Invalidate drops the in-memory credentials after the backend
// rejected the token. The disk cache is cleared too so the stale token
// is not restored on the next run.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.state = StateAnonymous
	m.creds = nil
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Clear(); err != nil {
			m.logger.Warn("Failed to clear token cache", "error", err)
		}
	}
	m.logger.Warn("Token rejected by backend; credentials dropped")
}

// Token returns the current bearer token, or "" when anonymous.
// Satisfies apiclient.TokenFunc.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return ""
	}
	return m.creds.AccessToken
}

// User returns the authenticated account, or false when anonymous.
func (m *Manager) User() (apiclient.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return apiclient.User{}, false
	}
	return m.creds.User, true
}

// RequireUser returns the authenticated account, or
// ErrNotAuthenticated when the manager is anonymous.
func (m *Manager) RequireUser() (apiclient.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated || m.creds == nil {
		return apiclient.User{}, ErrNotAuthenticated
	}
	return m.creds.User, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
