//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-app/domain"
	"context"
)

// IBlobStore is the local key-addressed store behind every client cache.
// Get returns errors.ErrCacheMiss when the key is absent.
type IBlobStore interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// IAuthService is the client view of the hosted auth service.
type IAuthService interface {
	SignIn(ctx context.Context, email, password string) (domain.Session, error)
	Register(ctx context.Context, email, password string) (domain.Session, error)
	SignOut(ctx context.Context) error
	CurrentSession() *domain.Session
	// OnAuthStateChange calls listener with the current state right away,
	// then on every sign-in and sign-out.
	OnAuthStateChange(listener func(session *domain.Session)) (unsubscribe func())
}

// ITokenSource hands out the bearer token of the active session.
type ITokenSource interface {
	Token() (string, error)
}

// IDocumentStream is the live ordered document collection.
// Every onSnapshot call carries the complete collection ordered by creation time.
type IDocumentStream interface {
	Subscribe(ctx context.Context, collection string,
		onSnapshot func(messages []domain.Message), onError func(err error)) (unsubscribe func(), err error)
	Append(ctx context.Context, collection string, draft domain.MessageDraft) (string, error)
}

// IObjectStorage uploads attachments and resolves their public URL.
type IObjectStorage interface {
	Upload(ctx context.Context, path string, data []byte) (domain.ObjectHandle, error)
	ResolveURL(ctx context.Context, handle domain.ObjectHandle) (string, error)
}

// IImageSource reads the bytes of a locally picked image.
type IImageSource interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// IBackend is the surface of the hosted backend, reached in-process or over gRPC.
type IBackend interface {
	Register(ctx context.Context, email, password string) (domain.Session, error)
	SignIn(ctx context.Context, email, password string) (domain.Session, error)
	SignOut(ctx context.Context, token string) error
	Append(ctx context.Context, token, collection string, draft domain.MessageDraft) (domain.Message, error)
	// Watch blocks, calling fn with a full snapshot on every change, until ctx is done.
	Watch(ctx context.Context, token, collection string, fn func(messages []domain.Message)) error
	Upload(ctx context.Context, token, path string, data []byte) (domain.ObjectHandle, error)
	ResolveURL(ctx context.Context, token string, handle domain.ObjectHandle) (string, error)
}
