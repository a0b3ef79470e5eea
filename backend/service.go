package backend

import (
	"chat-app/auth"
	"chat-app/domain"
	"chat-app/repositories"
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Options configures the emulated backend.
type Options struct {
	JWTSecret     string
	TokenDuration time.Duration
	PublicBaseURL string
	HashParams    auth.HashParams
}

// Service wires accounts, documents and objects behind bearer tokens.
// It satisfies contract.IBackend for in-process use and backs the gRPC server.
type Service struct {
	log       *slog.Logger
	Accounts  *Accounts
	Documents *Documents
	Objects   *Objects
}

func New(log *slog.Logger, db *badger.DB, opts Options) *Service {
	issuer := auth.NewTokenIssuer(opts.JWTSecret, opts.TokenDuration)
	return &Service{
		log:       log,
		Accounts:  NewAccounts(log, repositories.NewUserRepository(db), issuer, opts.HashParams),
		Documents: NewDocuments(log, repositories.NewMessageRepository(db, log), NewRegistry()),
		Objects:   NewObjects(log, repositories.NewObjectRepository(db), opts.PublicBaseURL),
	}
}

func (s *Service) Register(ctx context.Context, email, password string) (domain.Session, error) {
	return s.Accounts.Register(ctx, email, password)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	return s.Accounts.SignIn(ctx, email, password)
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.Accounts.SignOut(ctx, token)
}

func (s *Service) Append(ctx context.Context, token, collection string, draft domain.MessageDraft) (domain.Message, error) {
	if _, err := s.Accounts.Verify(token); err != nil {
		return domain.Message{}, err
	}
	return s.Documents.Append(ctx, collection, draft)
}

func (s *Service) Watch(ctx context.Context, token, collection string, fn func([]domain.Message)) error {
	if _, err := s.Accounts.Verify(token); err != nil {
		return err
	}
	return s.Documents.Watch(ctx, collection, fn)
}

func (s *Service) Upload(ctx context.Context, token, path string, data []byte) (domain.ObjectHandle, error) {
	claims, err := s.Accounts.Verify(token)
	if err != nil {
		return domain.ObjectHandle{}, err
	}
	return s.Objects.Upload(ctx, claims.UserID, path, data)
}

func (s *Service) ResolveURL(ctx context.Context, token string, handle domain.ObjectHandle) (string, error) {
	if _, err := s.Accounts.Verify(token); err != nil {
		return "", err
	}
	return s.Objects.ResolveURL(ctx, handle)
}

// Verify lets the gRPC interceptors share the revocation list.
func (s *Service) Verify(token string) (*auth.CustomClaims, error) {
	return s.Accounts.Verify(token)
}
