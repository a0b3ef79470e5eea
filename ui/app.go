// Package ui is the terminal front-end: a Login screen and a Chat screen.
// Screens only render state and forward intents to the session context.
package ui

import (
	"chat-app/app"
	"chat-app/composer"
	"chat-app/domain"
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

type screen int

const (
	screenStarting screen = iota
	screenLogin
	screenChat
)

// Model is the root bubbletea model. Navigation follows the auth state:
// a session shows the Chat screen, no session shows the Login screen.
type Model struct {
	ctx      context.Context
	log      *slog.Logger
	app      *app.Context
	screen   screen
	started  bool
	opening  bool
	login    loginModel
	chat     chatModel
	session  *app.ChatSession
	auth     latest[*domain.Session]
	feed     latest[[]domain.Message]
	stopAuth func()
	stopFeed func()
	width    int
	height   int
}

func New(ctx context.Context, log *slog.Logger, a *app.Context) Model {
	m := Model{
		ctx:    ctx,
		log:    log,
		app:    a,
		screen: screenStarting,
		login:  newLoginModel(),
		auth:   newLatest[*domain.Session](),
	}
	auth := m.auth
	m.stopAuth = a.Session().ObserveAuthState(func(session *domain.Session) { auth.put(session) })
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return startedMsg{restored: m.app.Start(m.ctx)} },
		m.waitAuth(),
	)
}

// Close stops observing the auth state and tears the open chat down.
func (m Model) Close() {
	if m.stopAuth != nil {
		m.stopAuth()
	}
	m.closeFeed()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case startedMsg:
		m.started = true
		m.log.Debug("Client started", "restored", msg.restored)
		return m.route()
	case authStateMsg:
		next, cmd := m.route()
		return next, tea.Batch(cmd, m.waitAuth())
	case submitMsg:
		return m, m.authenticate(msg)
	case chatOpenedMsg:
		return m.chatOpened(msg)
	case feedMsg:
		if msg.chat != m.session || m.screen != screenChat {
			return m, nil
		}
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, tea.Batch(cmd, m.waitFeed())
	case sendMsg, sendImageMsg:
		return m, m.send(msg)
	case uploadMsg:
		return m, m.upload(msg.uri)
	case logoutMsg:
		return m, m.logout()
	case logoutDoneMsg:
		m.closeFeed()
		m.session = nil
		if msg.err != nil {
			m.log.Warn("Logout failed", "error", msg.err)
		}
		return m.route()
	}

	var cmd tea.Cmd
	switch m.screen {
	case screenLogin:
		m.login, cmd = m.login.Update(msg)
	case screenChat:
		m.chat, cmd = m.chat.Update(msg)
	}
	return m, cmd
}

// route shows the screen matching the current session.
func (m Model) route() (tea.Model, tea.Cmd) {
	if !m.started {
		return m, nil
	}
	if m.app.Session().Session() == nil {
		if m.screen != screenLogin {
			m.closeFeed()
			m.session = nil
			m.screen = screenLogin
			m.login = newLoginModel()
		}
		return m, nil
	}
	if m.session != nil || m.opening {
		return m, nil
	}
	m.opening = true
	return m, func() tea.Msg {
		chat, err := m.app.OpenChat(m.ctx)
		return chatOpenedMsg{chat: chat, err: err}
	}
}

func (m Model) chatOpened(msg chatOpenedMsg) (tea.Model, tea.Cmd) {
	m.opening = false
	if msg.err != nil {
		m.log.Error("Failed to open chat", "error", msg.err)
		m.screen = screenLogin
		m.login.err = "Cannot open the chat: " + msg.err.Error()
		return m, nil
	}

	m.session = msg.chat
	m.feed = newLatest[[]domain.Message]()
	feed := m.feed
	m.stopFeed = msg.chat.Feed.OnChange(func(messages []domain.Message) { feed.put(messages) })
	m.chat = newChatModel(msg.chat, m.app.Session().DisplayName, m.width, m.height)
	m.screen = screenChat
	return m, m.waitFeed()
}

func (m *Model) closeFeed() {
	if m.stopFeed != nil {
		m.stopFeed()
		m.stopFeed = nil
	}
	if m.session != nil {
		m.session.Close()
	}
	if m.feed != nil {
		close(m.feed)
		m.feed = nil
	}
}

func (m Model) waitAuth() tea.Cmd {
	return wait(m.auth, func(s *domain.Session) tea.Msg { return authStateMsg{session: s} })
}

func (m Model) waitFeed() tea.Cmd {
	if m.feed == nil {
		return nil
	}
	chat := m.session
	return wait(m.feed, func(messages []domain.Message) tea.Msg {
		return feedMsg{chat: chat, messages: messages}
	})
}

func (m Model) authenticate(msg submitMsg) tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg{err: m.app.Session().Login(m.ctx, msg.username, msg.password, msg.mode)}
	}
}

func (m Model) send(intent tea.Msg) tea.Cmd {
	chat := m.session
	if chat == nil {
		return nil
	}
	return func() tea.Msg {
		var sent bool
		var err error
		switch intent.(type) {
		case sendImageMsg:
			sent, err = chat.Composer.SendImage(m.ctx)
		default:
			sent, err = chat.Composer.Send(m.ctx, composer.Overrides{})
		}
		return sendDoneMsg{sent: sent, err: err}
	}
}

func (m Model) upload(uri string) tea.Cmd {
	chat := m.session
	if chat == nil {
		return nil
	}
	return func() tea.Msg {
		return uploadDoneMsg{err: chat.Composer.UploadImage(m.ctx, uri)}
	}
}

func (m Model) logout() tea.Cmd {
	return func() tea.Msg {
		return logoutDoneMsg{err: m.app.Logout(m.ctx)}
	}
}

func (m Model) View() string {
	switch m.screen {
	case screenLogin:
		return m.login.View()
	case screenChat:
		return m.chat.View()
	default:
		return hintStyle.Render("Restoring session…")
	}
}
