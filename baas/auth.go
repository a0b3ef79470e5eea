// Package baas is the client SDK of the hosted backend: a session holder with
// auth-state listeners, a live document stream and object storage.
package baas

import (
	"chat-app/contract"
	"chat-app/domain"
	"chat-app/errors"
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Auth holds the current session. It implements contract.IAuthService and
// contract.ITokenSource.
type Auth struct {
	log     *slog.Logger
	backend contract.IBackend

	mu        sync.RWMutex
	session   *domain.Session
	listeners map[string]func(*domain.Session)
}

func NewAuth(log *slog.Logger, backend contract.IBackend) *Auth {
	return &Auth{
		log:       log,
		backend:   backend,
		listeners: make(map[string]func(*domain.Session)),
	}
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	session, err := a.backend.SignIn(ctx, email, password)
	if err != nil {
		return domain.Session{}, err
	}
	a.setSession(&session)
	return session, nil
}

func (a *Auth) Register(ctx context.Context, email, password string) (domain.Session, error) {
	session, err := a.backend.Register(ctx, email, password)
	if err != nil {
		return domain.Session{}, err
	}
	a.setSession(&session)
	return session, nil
}

// SignOut ends the local session. Revoking the token remotely is best effort:
// an expired or rejected token is logged and the session is cleared anyway.
func (a *Auth) SignOut(ctx context.Context) error {
	token, err := a.Token()
	if err != nil {
		return nil
	}
	if err = a.backend.SignOut(ctx, token); err != nil {
		a.log.Warn("Token revocation failed", "error", err)
	}
	a.setSession(nil)
	return nil
}

func (a *Auth) CurrentSession() *domain.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return nil
	}
	session := *a.session
	return &session
}

func (a *Auth) Token() (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return "", errors.ErrNotAuthenticated
	}
	return a.session.Token, nil
}

// OnAuthStateChange calls listener with the current state right away,
// then on every sign-in and sign-out.
func (a *Auth) OnAuthStateChange(listener func(*domain.Session)) func() {
	id := uuid.NewString()
	a.mu.Lock()
	a.listeners[id] = listener
	a.mu.Unlock()

	listener(a.CurrentSession())
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, id)
	}
}

func (a *Auth) setSession(session *domain.Session) {
	a.mu.Lock()
	a.session = session
	listeners := make([]func(*domain.Session), 0, len(a.listeners))
	for _, l := range a.listeners {
		listeners = append(listeners, l)
	}
	a.mu.Unlock()

	if session != nil {
		a.log.Info("Signed in", "user_id", session.UserID, "email", session.Email)
	} else {
		a.log.Info("Signed out")
	}
	for _, l := range listeners {
		l(a.CurrentSession())
	}
}
