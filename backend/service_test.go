package backend

import (
	"chat-app/auth"
	"chat-app/domain"
	"chat-app/errors"
	"chat-app/storage"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newService(t *testing.T, baseURL string) *Service {
	db, err := storage.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(logs.GetLoggerFromLevel(slog.LevelDebug), db, Options{
		JWTSecret:     "test-secret",
		TokenDuration: time.Hour,
		PublicBaseURL: baseURL,
		HashParams:    auth.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
	})
}

func TestAccounts_Register_Then_SignIn(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newService(t, "")

	session, err := svc.Register(ctx, "alice@chatapp.local", "secret1")
	req.NoError(err)
	req.Equal("alice@chatapp.local", session.Email)
	req.NotEmpty(session.Token)

	again, err := svc.SignIn(ctx, "alice@chatapp.local", "secret1")
	req.NoError(err)
	req.Equal(session.UserID, again.UserID)
}

func TestAccounts_Errors(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "")
	_, err := svc.Register(ctx, "alice@chatapp.local", "secret1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		call     func() error
		wantCode string
	}{
		{"Duplicate email", func() error {
			_, err := svc.Register(ctx, "alice@chatapp.local", "secret1")
			return err
		}, errors.CodeEmailAlreadyInUse},
		{"Weak password", func() error {
			_, err := svc.Register(ctx, "bob@chatapp.local", "123")
			return err
		}, errors.CodeWeakPassword},
		{"Malformed email", func() error {
			_, err := svc.SignIn(ctx, "bob smith@chatapp.local", "secret1")
			return err
		}, errors.CodeInvalidEmail},
		{"Wrong password", func() error {
			_, err := svc.SignIn(ctx, "alice@chatapp.local", "secret2")
			return err
		}, errors.CodeInvalidCredential},
		{"Unknown user", func() error {
			_, err := svc.SignIn(ctx, "carol@chatapp.local", "secret1")
			return err
		}, errors.CodeInvalidCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var authErr *errors.AuthError
			require.ErrorAs(t, tt.call(), &authErr)
			require.Equal(t, tt.wantCode, authErr.Code)
		})
	}
}

func TestAccounts_SignOut_Revokes_Token(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newService(t, "")

	session, err := svc.Register(ctx, "alice@chatapp.local", "secret1")
	req.NoError(err)
	req.NoError(svc.SignOut(ctx, session.Token))

	_, err = svc.Append(ctx, session.Token, domain.MessagesCollection, domain.MessageDraft{Text: "hi", User: "alice"})
	req.ErrorIs(err, errors.ErrTokenRevoked)

	_, err = svc.Append(ctx, "", domain.MessagesCollection, domain.MessageDraft{Text: "hi", User: "alice"})
	req.ErrorIs(err, errors.ErrNotAuthenticated)
}

func TestDocuments_Append_Rejects_Empty_Draft(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newService(t, "")
	session, err := svc.Register(ctx, "alice@chatapp.local", "secret1")
	req.NoError(err)

	_, err = svc.Append(ctx, session.Token, domain.MessagesCollection, domain.MessageDraft{Text: "   ", User: "alice"})
	req.ErrorIs(err, errors.ErrEmptyMessage)
}

func TestDocuments_Watch_Delivers_Full_Ordered_Snapshots(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := newService(t, "")
	session, err := svc.Register(ctx, "alice@chatapp.local", "secret1")
	req.NoError(err)

	// Given a frozen clock, timestamps must still be strictly increasing
	frozen := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.Documents.clock = func() time.Time { return frozen }

	_, err = svc.Append(ctx, session.Token, domain.MessagesCollection, domain.MessageDraft{Text: "first", User: "alice"})
	req.NoError(err)

	snapshots := make(chan []domain.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- svc.Watch(ctx, session.Token, domain.MessagesCollection, func(messages []domain.Message) {
			snapshots <- messages
		})
	}()

	initial := <-snapshots
	req.Len(initial, 1)
	req.Equal("first", initial[0].Text)

	second, err := svc.Append(ctx, session.Token, domain.MessagesCollection, domain.MessageDraft{Text: "second", User: "alice"})
	req.NoError(err)

	var latest []domain.Message
	req.Eventually(func() bool {
		select {
		case latest = <-snapshots:
		default:
		}
		return len(latest) == 2
	}, time.Second, 10*time.Millisecond)
	req.Equal("first", latest[0].Text)
	req.Equal(second.ID, latest[1].ID)
	req.True(latest[1].CreatedAt.After(latest[0].CreatedAt))

	cancel()
	req.NoError(<-done)
}

func TestRegistry_Unsubscribe_Drops_Empty_Collection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Subscribe("w1", "messages", NewWatcher())
	req.Len(registry.WatchersOf("messages"), 1)

	registry.Unsubscribe("w1", "messages")
	req.Nil(registry.WatchersOf("messages"))
	req.Empty(registry.collectionMembers)
}

func TestWatcher_Keeps_Only_Latest_Snapshot(t *testing.T) {
	req := require.New(t)
	w := NewWatcher()
	w.Deliver([]domain.Message{{ID: "1"}})
	w.Deliver([]domain.Message{{ID: "1"}, {ID: "2"}})

	got := <-w.Snapshots
	req.Len(got, 2)
	req.Empty(w.Snapshots)
}

func TestObjects_Upload_Resolve_And_Download(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	var handler http.Handler
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	defer server.Close()

	svc := newService(t, server.URL)
	handler = svc.Objects.Handler()
	session, err := svc.Register(ctx, "alice@chatapp.local", "secret1")
	req.NoError(err)

	// When an image is uploaded and resolved
	handle, err := svc.Upload(ctx, session.Token, domain.ImageUploadPath(1700000000000, "alice"), pngHeader)
	req.NoError(err)
	req.Equal("messages/1700000000000-alice.jpg", handle.Path)

	link, err := svc.ResolveURL(ctx, session.Token, handle)
	req.NoError(err)
	req.True(strings.HasPrefix(link, server.URL+"/objects/messages%2F1700000000000-alice.jpg?token="))

	// Then the URL serves the original bytes with the sniffed type
	resp, err := http.Get(link)
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("image/png", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	req.Equal(pngHeader, body)

	// And a wrong token is refused
	forbidden, err := http.Get(server.URL + "/objects/messages%2F1700000000000-alice.jpg?token=nope")
	req.NoError(err)
	defer forbidden.Body.Close()
	req.Equal(http.StatusForbidden, forbidden.StatusCode)

	missing, err := http.Get(server.URL + "/objects/unknown?token=x")
	req.NoError(err)
	defer missing.Body.Close()
	req.Equal(http.StatusNotFound, missing.StatusCode)
}

func TestObjects_Same_Path_Keeps_First_Link(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	var handler http.Handler
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	defer server.Close()

	svc := newService(t, server.URL)
	handler = svc.Objects.Handler()
	session, err := svc.Register(ctx, "alice@chatapp.local", "secret1")
	req.NoError(err)

	// Given an image uploaded and linked from a message
	path := domain.ImageUploadPath(1700000000000, "alice")
	handle, err := svc.Upload(ctx, session.Token, path, pngHeader)
	req.NoError(err)
	link, err := svc.ResolveURL(ctx, session.Token, handle)
	req.NoError(err)

	// When a second upload lands on the same path in the same millisecond
	_, err = svc.Upload(ctx, session.Token, path, append([]byte{}, pngHeader...))
	req.ErrorIs(err, errors.ErrObjectExists)

	// Then the first link still serves its bytes
	resp, err := http.Get(link)
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
}

func TestObjects_ResolveURL_Unknown_Object(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newService(t, "http://localhost")
	session, err := svc.Register(ctx, "alice@chatapp.local", "secret1")
	req.NoError(err)

	_, err = svc.ResolveURL(ctx, session.Token, domain.ObjectHandle{Path: "messages/none.jpg"})
	req.ErrorIs(err, errors.ErrObjectNotFound)
}
