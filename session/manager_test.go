package session

import (
	"chat-app/auth"
	"chat-app/baas"
	"chat-app/backend"
	"chat-app/cache"
	"chat-app/contract"
	"chat-app/domain"
	"chat-app/errors"
	"chat-app/mocks"
	"chat-app/storage"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testSecret = []byte("test-credential-secret")

func newLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

func openDB(t *testing.T) *badger.DB {
	db, err := storage.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newManager(t *testing.T, store contract.IBlobStore, authService contract.IAuthService) *Manager {
	sealer, err := cache.NewSealer(testSecret)
	require.NoError(t, err)
	return NewManager(newLogger(), authService,
		cache.NewCredentialCache(store, sealer), cache.NewProfileCache(store))
}

func newBackend(t *testing.T) contract.IBackend {
	return backend.New(newLogger(), openDB(t), backend.Options{
		JWTSecret:     "test-secret",
		TokenDuration: time.Hour,
		HashParams:    auth.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
	})
}

func TestLogin_Then_Restart_AutoLogin_Restores_Identity(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	server := newBackend(t)
	store := storage.NewBadgerStore(openDB(t), newLogger())

	// Given a first run registering alice
	first := newManager(t, store, baas.NewAuth(newLogger(), server))
	req.NoError(first.Login(ctx, "  Alice ", "secret1", domain.Register))
	req.Equal("alice@chatapp.local", first.Session().Email)

	// When the process restarts with the same local store
	second := newManager(t, store, baas.NewAuth(newLogger(), server))
	req.Nil(second.Session())
	req.True(second.AutoLogin(ctx))

	// Then the identity is the same
	req.Equal(first.Session().UserID, second.Session().UserID)
	req.Equal("alice@chatapp.local", second.Session().Email)
	req.Equal("Alice", second.DisplayName())
}

func TestLogin_Rejects_Blank_Fields_Before_Network(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"Empty username", "", "secret1"},
		{"Blank username", "   ", "secret1"},
		{"Empty password", "alice", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			authService := mocks.NewMockIAuthService(ctrl)
			store := mocks.NewMockIBlobStore(ctrl)

			err := newManager(t, store, authService).Login(context.Background(), tt.username, tt.password, domain.SignIn)
			require.ErrorIs(t, err, errors.ErrMissingCredentials)
		})
	}
}

func TestLogin_Returns_Backend_Error_Verbatim_And_Caches_Nothing(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	authService := mocks.NewMockIAuthService(ctrl)
	store := mocks.NewMockIBlobStore(ctrl)
	ctx := context.Background()
	authErr := errors.NewAuthError(errors.CodeInvalidCredential, "Invalid username or password")

	authService.EXPECT().SignIn(ctx, "alice@chatapp.local", "secret1").Return(domain.Session{}, authErr)

	err := newManager(t, store, authService).Login(ctx, "alice", "secret1", domain.SignIn)
	req.Equal(authErr, err)
}

func TestLogout_Clears_Exactly_Credentials_And_Profile(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	server := newBackend(t)
	store := storage.NewBadgerStore(openDB(t), newLogger())
	manager := newManager(t, store, baas.NewAuth(newLogger(), server))

	req.NoError(manager.Login(ctx, "alice", "secret1", domain.Register))
	req.NoError(store.Set(cache.MessagesKey, []byte(`[{"id":"1","text":"hi","user":"alice"}]`)))

	// When logging out
	req.NoError(manager.Logout(ctx))

	// Then both identity entries are gone and the message cache survives
	_, err := store.Get(cache.CredentialsKey)
	req.ErrorIs(err, errors.ErrCacheMiss)
	_, err = store.Get(cache.ProfileKey)
	req.ErrorIs(err, errors.ErrCacheMiss)
	messages, err := store.Get(cache.MessagesKey)
	req.NoError(err)
	req.NotEmpty(messages)
	req.Nil(manager.Profile())
	req.Nil(manager.Session())
	req.Equal("User", manager.DisplayName())
}

func TestLogout_SignOut_Failure_Still_Clears_Caches(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	authService := mocks.NewMockIAuthService(ctrl)
	store := storage.NewBadgerStore(openDB(t), newLogger())
	ctx := context.Background()

	sealer, err := cache.NewSealer(testSecret)
	req.NoError(err)
	req.NoError(cache.NewCredentialCache(store, sealer).Save(domain.StoredCredentials{Username: "alice", Password: "secret1"}))
	req.NoError(cache.NewProfileCache(store).Save(domain.StoredProfile{Username: "alice"}))
	authService.EXPECT().SignOut(ctx).Return(fmt.Errorf("network down"))

	// When the sign-out fails
	req.NoError(newManager(t, store, authService).Logout(ctx))

	// Then both identity entries are gone anyway
	_, err = store.Get(cache.CredentialsKey)
	req.ErrorIs(err, errors.ErrCacheMiss)
	_, err = store.Get(cache.ProfileKey)
	req.ErrorIs(err, errors.ErrCacheMiss)
}

func TestLogout_With_Expired_Token(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	// Tokens are issued already expired
	server := backend.New(newLogger(), openDB(t), backend.Options{
		JWTSecret:     "test-secret",
		TokenDuration: -time.Minute,
		HashParams:    auth.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
	})
	store := storage.NewBadgerStore(openDB(t), newLogger())
	manager := newManager(t, store, baas.NewAuth(newLogger(), server))
	req.NoError(manager.Login(ctx, "alice", "secret1", domain.Register))

	// When logging out with a token the backend rejects
	req.NoError(manager.Logout(ctx))

	// Then the session and both caches are cleared
	req.Nil(manager.Session())
	_, err := store.Get(cache.CredentialsKey)
	req.ErrorIs(err, errors.ErrCacheMiss)
	_, err = store.Get(cache.ProfileKey)
	req.ErrorIs(err, errors.ErrCacheMiss)
}

func TestAutoLogin_Swallows_Failures(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	authService := mocks.NewMockIAuthService(ctrl)
	store := storage.NewBadgerStore(openDB(t), newLogger())
	manager := newManager(t, store, authService)
	ctx := context.Background()

	// Given no cached credentials
	authService.EXPECT().CurrentSession().Return(nil)
	req.False(manager.AutoLogin(ctx))

	// Given cached credentials the backend now rejects
	sealer, err := cache.NewSealer(testSecret)
	req.NoError(err)
	req.NoError(cache.NewCredentialCache(store, sealer).Save(domain.StoredCredentials{Username: "alice", Password: "old"}))
	authService.EXPECT().CurrentSession().Return(nil)
	authService.EXPECT().SignIn(ctx, "alice@chatapp.local", "old").
		Return(domain.Session{}, errors.NewAuthError(errors.CodeInvalidCredential, "Invalid username or password"))
	req.False(manager.AutoLogin(ctx))
	req.Nil(manager.Profile())

	// Given credentials sealed under another secret
	other := newManager(t, store, authService)
	otherSealer, err := cache.NewSealer([]byte("another-secret"))
	req.NoError(err)
	other.credentials = cache.NewCredentialCache(store, otherSealer)
	authService.EXPECT().CurrentSession().Return(nil)
	req.False(other.AutoLogin(ctx))
}

func TestAutoLogin_With_Existing_Session_Only_Refreshes_Profile(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	authService := mocks.NewMockIAuthService(ctrl)
	store := storage.NewBadgerStore(openDB(t), newLogger())
	manager := newManager(t, store, authService)

	req.NoError(manager.credentials.Save(domain.StoredCredentials{Username: "alice", Password: "secret1"}))
	authService.EXPECT().CurrentSession().Return(&domain.Session{Email: "alice@chatapp.local"})

	req.True(manager.AutoLogin(context.Background()))
	profile, err := manager.profiles.Load()
	req.NoError(err)
	req.Equal("alice", profile.Username)
}

func TestObserveAuthState_Hydrates_Profile_Before_Notifying(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	server := newBackend(t)
	store := storage.NewBadgerStore(openDB(t), newLogger())
	req.NoError(cache.NewProfileCache(store).Save(domain.StoredProfile{Username: "alice"}))

	manager := newManager(t, store, baas.NewAuth(newLogger(), server))
	var names []string
	unsubscribe := manager.ObserveAuthState(func(session *domain.Session) {
		if session == nil {
			names = append(names, "")
			return
		}
		names = append(names, manager.DisplayName())
	})
	defer unsubscribe()

	req.NoError(manager.Login(ctx, "alice", "secret1", domain.Register))
	req.Equal([]string{"", "alice"}, names)
}

func TestDisplayName_Falls_Back_To_Session(t *testing.T) {
	ctrl := gomock.NewController(t)
	authService := mocks.NewMockIAuthService(ctrl)
	manager := newManager(t, mocks.NewMockIBlobStore(ctrl), authService)

	authService.EXPECT().CurrentSession().Return(&domain.Session{Email: "bob@chatapp.local"})
	require.Equal(t, "bob", manager.DisplayName())
}
