// Package backend emulates the hosted backend-as-a-service the chat client
// talks to: managed accounts, a live document collection and object storage.
package backend

import (
	"chat-app/auth"
	"chat-app/domain"
	"chat-app/errors"
	"chat-app/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Accounts is the managed auth service.
type Accounts struct {
	log    *slog.Logger
	users  repositories.IUserRepository
	tokens *auth.TokenIssuer
	hash   auth.HashParams

	mu      sync.Mutex
	revoked map[string]time.Time // token ID -> expiry
}

func NewAccounts(log *slog.Logger, users repositories.IUserRepository,
	tokens *auth.TokenIssuer, hash auth.HashParams) *Accounts {
	return &Accounts{
		log:     log,
		users:   users,
		tokens:  tokens,
		hash:    hash,
		revoked: make(map[string]time.Time),
	}
}

func (a *Accounts) Register(_ context.Context, email, password string) (domain.Session, error) {
	// Business rules are checked before any expensive cryptographic operation.
	if err := auth.ValidateCredentials(auth.CredentialsRequest{Email: email, Password: password}); err != nil {
		return domain.Session{}, err
	}

	hashedPassword, err := auth.HashPassword(password, a.hash)
	if err != nil {
		return domain.Session{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := a.users.CreateUser(email, hashedPassword)
	if stderrors.Is(err, errors.ErrUserAlreadyExists) {
		return domain.Session{}, errors.NewAuthError(errors.CodeEmailAlreadyInUse,
			"The email address is already in use by another account")
	}
	if err != nil {
		return domain.Session{}, err
	}

	a.log.Info("Account registered", "user_id", user.ID, "email", email)
	return a.issue(user)
}

func (a *Accounts) SignIn(_ context.Context, email, password string) (domain.Session, error) {
	if err := auth.ValidateEmail(email); err != nil {
		return domain.Session{}, err
	}

	// The same error for unknown users and wrong passwords prevents user enumeration.
	invalid := errors.NewAuthError(errors.CodeInvalidCredential, "Invalid username or password")

	user, err := a.users.GetUserByEmail(email)
	if stderrors.Is(err, errors.ErrUserNotFound) {
		return domain.Session{}, invalid
	}
	if err != nil {
		return domain.Session{}, err
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return domain.Session{}, invalid
	}
	return a.issue(user)
}

// SignOut revokes the token until its natural expiry.
func (a *Accounts) SignOut(_ context.Context, token string) error {
	claims, err := a.Verify(token)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked[claims.ID] = claims.ExpiresAt.Time
	a.log.Info("Session revoked", "user_id", claims.UserID)
	return nil
}

// Verify validates a bearer token and rejects revoked ones.
func (a *Accounts) Verify(token string) (*auth.CustomClaims, error) {
	if token == "" {
		return nil, errors.ErrNotAuthenticated
	}
	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrNotAuthenticated, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	now := time.Now()
	for id, expiry := range a.revoked {
		if expiry.Before(now) {
			delete(a.revoked, id)
		}
	}
	if _, ok := a.revoked[claims.ID]; ok {
		return nil, errors.ErrTokenRevoked
	}
	return claims, nil
}

func (a *Accounts) issue(user repositories.User) (domain.Session, error) {
	token, claims, err := a.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return domain.Session{}, errors.ErrTokenGeneration
	}
	return domain.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
