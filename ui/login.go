package ui

import (
	"chat-app/domain"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// loginModel is the Login screen: username, password and a sign-in/register switch.
type loginModel struct {
	username textinput.Model
	password textinput.Model
	spinner  spinner.Model
	mode     domain.AuthMode
	busy     bool
	err      string
}

// submitMsg asks the root model to authenticate.
type submitMsg struct {
	username string
	password string
	mode     domain.AuthMode
}

func newLoginModel() loginModel {
	username := textinput.New()
	username.Prompt = "username > "
	username.Placeholder = "alice"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Prompt = "password > "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	return loginModel{
		username: username,
		password: password,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		mode:     domain.SignIn,
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err.Error()
		}
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
			m.toggleFocus()
			return m, textinput.Blink
		case tea.KeyCtrlR:
			if m.mode == domain.SignIn {
				m.mode = domain.Register
			} else {
				m.mode = domain.SignIn
			}
			return m, nil
		case tea.KeyEnter:
			m.err = ""
			m.busy = true
			submit := submitMsg{username: m.username.Value(), password: m.password.Value(), mode: m.mode}
			return m, tea.Batch(m.spinner.Tick, func() tea.Msg { return submit })
		}
	}

	var cmd tea.Cmd
	if m.username.Focused() {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *loginModel) toggleFocus() {
	if m.username.Focused() {
		m.username.Blur()
		m.password.Focus()
		return
	}
	m.password.Blur()
	m.username.Focus()
}

func (m loginModel) View() string {
	title := "Sign in"
	switch m.mode {
	case domain.Register:
		title = "Create an account"
	}

	lines := []string{
		titleStyle.Render("chat-app · " + title),
		m.username.View(),
		m.password.View(),
		"",
	}
	switch {
	case m.busy:
		lines = append(lines, m.spinner.View()+" authenticating…")
	case m.err != "":
		lines = append(lines, errorStyle.Render(m.err))
	default:
		lines = append(lines, "")
	}
	lines = append(lines, hintStyle.Render(strings.Join([]string{
		"enter submit", "tab switch field", "ctrl+r sign in / register", "ctrl+c quit",
	}, " · ")))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
