package ui

import (
	"chat-app/app"
	"chat-app/auth"
	"chat-app/backend"
	"chat-app/composer"
	"chat-app/domain"
	"chat-app/errors"
	"chat-app/storage"
	"context"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T) *app.Context {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	clientDB, err := storage.Open("")
	require.NoError(t, err)
	serverDB, err := storage.Open("")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = clientDB.Close()
		_ = serverDB.Close()
	})

	a, err := app.New(app.Deps{
		Log:   log,
		Store: storage.NewBadgerStore(clientDB, log),
		Backend: backend.New(log, serverDB, backend.Options{
			JWTSecret:     "test-secret",
			TokenDuration: time.Hour,
			HashParams:    auth.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		}),
		Images: composer.NewLocalImageSource(nil),
	})
	require.NoError(t, err)
	return a
}

func TestLatest_Keeps_Newest_Value(t *testing.T) {
	req := require.New(t)
	l := newLatest[int]()
	l.put(1)
	l.put(2)

	msg := wait(l, func(v int) tea.Msg { return v })()
	req.Equal(2, msg)

	close(l)
	req.Nil(wait(l, func(v int) tea.Msg { return v })())
}

func TestLogin_Submit_And_Mode_Switch(t *testing.T) {
	req := require.New(t)
	m := newLoginModel()
	m.username.SetValue("alice")
	m.password.SetValue("secret1")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	req.Equal(domain.Register, m.mode)
	req.Contains(m.View(), "Create an account")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	req.True(m.busy)
	req.NotNil(cmd)

	// Keys are ignored while authenticating
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	req.Equal(domain.Register, m.mode)
}

func TestLogin_Shows_Error_Verbatim(t *testing.T) {
	req := require.New(t)
	m := newLoginModel()
	m.busy = true

	authErr := errors.NewAuthError(errors.CodeEmailAlreadyInUse, "The email address is already in use by another account")
	m, _ = m.Update(loginDoneMsg{err: authErr})
	req.False(m.busy)
	req.Contains(m.View(), "The email address is already in use by another account (auth/email-already-in-use)")
}

func TestModel_Routes_From_Login_To_Chat_And_Back(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	a := newApp(t)
	m := New(ctx, logs.GetLoggerFromLevel(slog.LevelDebug), a)
	defer m.Close()

	// Given a fresh install, the Login screen shows
	next, _ := m.Update(startedMsg{})
	m = next.(Model)
	req.Equal(screenLogin, m.screen)

	// When alice registers
	next, cmd := m.Update(submitMsg{username: "alice", password: "secret1", mode: domain.Register})
	m = next.(Model)
	done := cmd().(loginDoneMsg)
	req.NoError(done.err)

	// Then the auth state opens the chat
	next, cmd = m.route()
	m = next.(Model)
	req.True(m.opening)
	next, _ = m.Update(cmd())
	m = next.(Model)
	req.Equal(screenChat, m.screen)
	req.Contains(m.View(), "alice")

	// When she logs out
	next, cmd = m.Update(logoutMsg{})
	m = next.(Model)
	next, _ = m.Update(cmd())
	m = next.(Model)
	req.Equal(screenLogin, m.screen)
	req.Nil(m.session)
}

func TestChat_Renders_Feed_And_Marks_New_Messages(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	a := newApp(t)
	req.NoError(a.Session().Login(ctx, "alice", "secret1", domain.Register))
	chat, err := a.OpenChat(ctx)
	req.NoError(err)
	defer chat.Close()

	m := newChatModel(chat, func() string { return "alice" }, 100, 30)
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	first := []domain.Message{{ID: "1", Text: "hi", User: "bob", CreatedAt: at}}
	m, _ = m.Update(feedMsg{chat: chat, messages: first})
	req.Empty(m.fresh)

	m, _ = m.Update(feedMsg{chat: chat, messages: append(first,
		domain.Message{ID: "2", User: "alice", CreatedAt: at.Add(time.Second), ImageURL: "http://objects/pic"})})
	req.True(m.fresh["2"])
	req.Contains(m.View(), "[image] http://objects/pic")

	// Typing reaches the composer
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("yo")})
	req.Equal("yo", chat.Composer.Text())

	// Attach mode keeps the draft aside
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	req.True(m.attach)
	req.Empty(m.input.Value())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	req.Equal("yo", m.input.Value())
}
