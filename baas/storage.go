package baas

import (
	"chat-app/contract"
	"chat-app/domain"
	"context"
)

// Storage implements contract.IObjectStorage.
type Storage struct {
	backend contract.IBackend
	tokens  contract.ITokenSource
}

func NewStorage(backend contract.IBackend, tokens contract.ITokenSource) *Storage {
	return &Storage{backend: backend, tokens: tokens}
}

func (s *Storage) Upload(ctx context.Context, path string, data []byte) (domain.ObjectHandle, error) {
	token, err := s.tokens.Token()
	if err != nil {
		return domain.ObjectHandle{}, err
	}
	return s.backend.Upload(ctx, token, path, data)
}

func (s *Storage) ResolveURL(ctx context.Context, handle domain.ObjectHandle) (string, error) {
	token, err := s.tokens.Token()
	if err != nil {
		return "", err
	}
	return s.backend.ResolveURL(ctx, token, handle)
}
