package app

import (
	"chat-app/auth"
	"chat-app/backend"
	"chat-app/cache"
	"chat-app/composer"
	"chat-app/domain"
	"chat-app/errors"
	"chat-app/storage"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type env struct {
	store   *storage.BadgerStore
	backend *backend.Service
}

func newEnv(t *testing.T) env {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	clientDB, err := storage.Open("")
	require.NoError(t, err)
	serverDB, err := storage.Open("")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = clientDB.Close()
		_ = serverDB.Close()
	})
	return env{
		store: storage.NewBadgerStore(clientDB, log),
		backend: backend.New(log, serverDB, backend.Options{
			JWTSecret:     "test-secret",
			TokenDuration: time.Hour,
			PublicBaseURL: "http://objects.test",
			HashParams:    auth.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		}),
	}
}

func (e env) newContext(t *testing.T) *Context {
	a, err := New(Deps{
		Log:     logs.GetLoggerFromLevel(slog.LevelDebug),
		Store:   e.store,
		Backend: e.backend,
		Images:  composer.NewLocalImageSource(nil),
	})
	require.NoError(t, err)
	return a
}

func TestAlice_Registers_And_Says_Hello(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	e := newEnv(t)
	a := e.newContext(t)

	// Given a fresh install with no session
	req.False(a.Start(ctx))
	_, err := a.OpenChat(ctx)
	req.ErrorIs(err, errors.ErrNotAuthenticated)

	// When alice registers and opens the chat
	req.NoError(a.Session().Login(ctx, "alice", "secret1", domain.Register))
	req.Equal("alice@chatapp.local", a.Session().Session().Email)
	chat, err := a.OpenChat(ctx)
	req.NoError(err)
	defer chat.Close()

	// And says hello
	chat.Composer.SetText("hello")
	sent, err := chat.Composer.Send(ctx, composer.Overrides{})
	req.NoError(err)
	req.True(sent)

	// Then the feed ends with her message
	req.Eventually(func() bool {
		messages := chat.Feed.Messages()
		return len(messages) == 1
	}, 2*time.Second, 10*time.Millisecond)
	last := chat.Feed.Messages()[0]
	req.Equal("hello", last.Text)
	req.Equal("alice", last.User)
	req.Empty(last.ImageURL)
	req.Equal(domain.FeedLive, chat.Feed.State())
}

func TestRestart_Shows_Cached_Feed_And_Restores_Session(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	e := newEnv(t)

	first := e.newContext(t)
	req.NoError(first.Session().Login(ctx, "alice", "secret1", domain.Register))
	chat, err := first.OpenChat(ctx)
	req.NoError(err)
	chat.Composer.SetText("hello")
	_, err = chat.Composer.Send(ctx, composer.Overrides{})
	req.NoError(err)
	req.Eventually(func() bool { return len(chat.Feed.Messages()) == 1 }, 2*time.Second, 10*time.Millisecond)
	chat.Close()

	// When the app restarts on the same store
	second := e.newContext(t)
	req.True(second.Start(ctx))
	req.Equal("alice", second.Session().DisplayName())

	cached, err := cache.NewMessageCache(e.store, 0).Load()
	req.NoError(err)
	req.Len(cached, 1)
}

func TestLogout_Closes_Chat_And_Keeps_Message_Cache(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	e := newEnv(t)
	a := e.newContext(t)

	req.NoError(a.Session().Login(ctx, "alice", "secret1", domain.Register))
	chat, err := a.OpenChat(ctx)
	req.NoError(err)
	req.Eventually(func() bool {
		_, err := e.store.Get(cache.MessagesKey)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	req.NoError(a.Logout(ctx))
	req.Equal(domain.FeedUnsubscribed, chat.Feed.State())
	req.Nil(a.Session().Session())

	_, err = e.store.Get(cache.CredentialsKey)
	req.ErrorIs(err, errors.ErrCacheMiss)
	_, err = e.store.Get(cache.MessagesKey)
	req.NoError(err)
	_, err = e.store.Get(cache.DeviceKeyKey)
	req.NoError(err)
}

func TestChat_Opened_On_Sign_In_Sends_As_Typed_Username(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	e := newEnv(t)
	a := e.newContext(t)

	// Given a chat opened from the auth-state notification, before the profile is cached
	var chat *ChatSession
	unsubscribe := a.Session().ObserveAuthState(func(session *domain.Session) {
		if session == nil || chat != nil {
			return
		}
		var err error
		chat, err = a.OpenChat(ctx)
		req.NoError(err)
	})
	defer unsubscribe()

	// When "Alice" registers and says hello
	req.NoError(a.Session().Login(ctx, "Alice", "secret1", domain.Register))
	req.NotNil(chat)
	defer chat.Close()
	chat.Composer.SetText("hello")
	_, err := chat.Composer.Send(ctx, composer.Overrides{})
	req.NoError(err)

	// Then the record carries the name as typed, not the lowercased email
	req.Eventually(func() bool { return len(chat.Feed.Messages()) == 1 }, 2*time.Second, 10*time.Millisecond)
	req.Equal("Alice", chat.Feed.Messages()[0].User)
	req.Equal("Alice", a.Session().DisplayName())
}
