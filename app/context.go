// Package app is the process-wide session context: it owns the session
// manager and hands out one feed and composer per opened chat.
package app

import (
	"chat-app/baas"
	"chat-app/cache"
	"chat-app/composer"
	"chat-app/contract"
	"chat-app/errors"
	"chat-app/feed"
	"chat-app/session"
	"context"
	"fmt"
	"log/slog"
	"sync"
)

type Deps struct {
	Log     *slog.Logger
	Store   contract.IBlobStore
	Backend contract.IBackend
	Images  contract.IImageSource
	// CredentialSecret seals the cached credentials. When empty a random
	// per-install key is kept in the store.
	CredentialSecret  []byte
	MessageCacheLimit int
}

type Context struct {
	log      *slog.Logger
	session  *session.Manager
	auth     *baas.Auth
	docs     *baas.Documents
	storage  *baas.Storage
	images   contract.IImageSource
	messages *cache.MessageCache

	mu   sync.Mutex
	chat *ChatSession
}

// ChatSession is the state of one open chat screen.
type ChatSession struct {
	Feed     *feed.Controller
	Composer *composer.Composer
}

// Close tears the live feed down. Pending uploads and sends are not cancelled.
func (c *ChatSession) Close() {
	c.Feed.Unmount()
}

func New(deps Deps) (*Context, error) {
	secret := deps.CredentialSecret
	if len(secret) == 0 {
		var err error
		if secret, err = cache.DeviceSecret(deps.Store); err != nil {
			return nil, fmt.Errorf("device key: %w", err)
		}
	}
	sealer, err := cache.NewSealer(secret)
	if err != nil {
		return nil, err
	}

	auth := baas.NewAuth(deps.Log, deps.Backend)
	return &Context{
		log: deps.Log,
		session: session.NewManager(deps.Log, auth,
			cache.NewCredentialCache(deps.Store, sealer), cache.NewProfileCache(deps.Store)),
		auth:     auth,
		docs:     baas.NewDocuments(deps.Log, deps.Backend, auth),
		storage:  baas.NewStorage(deps.Backend, auth),
		images:   deps.Images,
		messages: cache.NewMessageCache(deps.Store, deps.MessageCacheLimit),
	}, nil
}

// Start restores the previous session from the cached credentials.
func (a *Context) Start(ctx context.Context) bool {
	return a.session.AutoLogin(ctx)
}

func (a *Context) Session() *session.Manager {
	return a.session
}

// OpenChat mounts a fresh feed and composer, closing any chat already open.
func (a *Context) OpenChat(ctx context.Context) (*ChatSession, error) {
	if a.session.Session() == nil {
		return nil, errors.ErrNotAuthenticated
	}
	a.closeChat()

	controller := feed.NewController(a.log, a.docs, a.messages)
	if err := controller.Mount(ctx); err != nil {
		controller.Unmount()
		return nil, err
	}
	chat := &ChatSession{
		Feed:     controller,
		Composer: composer.New(a.log, a.session.DisplayName, a.docs, a.storage, a.images),
	}

	a.mu.Lock()
	a.chat = chat
	a.mu.Unlock()
	return chat, nil
}

// Logout closes the open chat, then signs out and clears the identity caches.
func (a *Context) Logout(ctx context.Context) error {
	a.closeChat()
	return a.session.Logout(ctx)
}

func (a *Context) closeChat() {
	a.mu.Lock()
	chat := a.chat
	a.chat = nil
	a.mu.Unlock()
	if chat != nil {
		chat.Close()
	}
}
