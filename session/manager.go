// Package session owns the signed-in identity: cached credentials, the
// cached profile and the auth-state stream.
package session

import (
	"chat-app/cache"
	"chat-app/contract"
	"chat-app/domain"
	"chat-app/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

const fallbackDisplayName = "User"

type Manager struct {
	log         *slog.Logger
	auth        contract.IAuthService
	credentials *cache.CredentialCache
	profiles    *cache.ProfileCache

	mu      sync.RWMutex
	profile *domain.StoredProfile
}

func NewManager(log *slog.Logger, auth contract.IAuthService,
	credentials *cache.CredentialCache, profiles *cache.ProfileCache) *Manager {
	return &Manager{log: log, auth: auth, credentials: credentials, profiles: profiles}
}

// AutoLogin signs in again with the cached credentials.
// Failures are logged and leave the logged-out state; it reports whether a
// session is active afterwards.
func (m *Manager) AutoLogin(ctx context.Context) bool {
	stored, err := m.credentials.Load()
	if stderrors.Is(err, errors.ErrCacheMiss) {
		return m.auth.CurrentSession() != nil
	}
	if err != nil {
		m.log.Warn("Auto login failed", "error", err)
		return m.auth.CurrentSession() != nil
	}

	if m.auth.CurrentSession() == nil {
		if _, err = m.auth.SignIn(ctx, domain.SyntheticEmail(stored.Username), stored.Password); err != nil {
			m.log.Warn("Auto login failed", "username", stored.Username, "error", err)
			return false
		}
	}

	profile := domain.StoredProfile{Username: stored.Username}
	if err = m.profiles.Save(profile); err != nil {
		m.log.Warn("Failed to write profile cache", "error", err)
	}
	m.setProfile(&profile)
	m.log.Info("Auto login succeeded", "username", stored.Username)
	return true
}

// ObserveAuthState calls fn with the current session right away, then on
// every change. The profile is re-read from its cache before fn sees a session.
func (m *Manager) ObserveAuthState(fn func(session *domain.Session)) func() {
	return m.auth.OnAuthStateChange(func(session *domain.Session) {
		if session != nil {
			m.hydrateProfile()
		}
		fn(session)
	})
}

// Login authenticates with username and password. The credentials and the
// profile are cached before it returns. Backend errors are returned as-is.
func (m *Manager) Login(ctx context.Context, username, password string, mode domain.AuthMode) error {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return errors.ErrMissingCredentials
	}

	email := domain.SyntheticEmail(username)
	var err error
	switch mode {
	case domain.Register:
		_, err = m.auth.Register(ctx, email, password)
	default:
		_, err = m.auth.SignIn(ctx, email, password)
	}
	if err != nil {
		m.log.Info("Authentication failed", "mode", mode.String(), "username", username, "error", err)
		return err
	}

	if err = m.credentials.Save(domain.StoredCredentials{Username: username, Password: password}); err != nil {
		return fmt.Errorf("cache credentials: %w", err)
	}
	profile := domain.StoredProfile{Username: username}
	if err = m.profiles.Save(profile); err != nil {
		return fmt.Errorf("cache profile: %w", err)
	}
	m.setProfile(&profile)
	m.log.Info("Logged in", "mode", mode.String(), "username", username)
	return nil
}

// Logout signs out, then removes the cached credentials and profile.
// The message cache is left alone. The caches are cleared even when the sign-out fails.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.auth.SignOut(ctx); err != nil {
		m.log.Warn("Sign out failed, clearing local identity anyway", "error", err)
	}
	var errs []error
	if err := m.profiles.Clear(); err != nil {
		errs = append(errs, fmt.Errorf("clear profile: %w", err))
	}
	if err := m.credentials.Clear(); err != nil {
		errs = append(errs, fmt.Errorf("clear credentials: %w", err))
	}
	m.setProfile(nil)
	return stderrors.Join(errs...)
}

func (m *Manager) Profile() *domain.StoredProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return nil
	}
	profile := *m.profile
	return &profile
}

func (m *Manager) Session() *domain.Session {
	return m.auth.CurrentSession()
}

// DisplayName falls back from the profile to the session email, then to "User".
func (m *Manager) DisplayName() string {
	if profile := m.Profile(); profile != nil && profile.Username != "" {
		return profile.Username
	}
	if session := m.auth.CurrentSession(); session != nil {
		if name := session.Username(); name != "" {
			return name
		}
	}
	return fallbackDisplayName
}

// hydrateProfile keeps the current profile when the cache cannot be read.
func (m *Manager) hydrateProfile() {
	profile, err := m.profiles.Load()
	switch {
	case stderrors.Is(err, errors.ErrCacheMiss):
		m.setProfile(nil)
	case err != nil:
		m.log.Warn("Failed to read profile cache", "error", err)
	default:
		m.setProfile(&profile)
	}
}

func (m *Manager) setProfile(profile *domain.StoredProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = profile
}
