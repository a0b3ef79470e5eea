package ui

import (
	"chat-app/app"
	"chat-app/domain"
	"chat-app/feed"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
)

const (
	messagePrompt = "> "
	attachPrompt  = "image path > "
)

// Intents the chat screen hands to the root model.
type (
	sendMsg      struct{}
	sendImageMsg struct{}
	uploadMsg    struct{ uri string }
	logoutMsg    struct{}
)

// chatModel is the Chat screen. It renders the feed and forwards composer
// actions; the feed itself is owned by the chat session.
type chatModel struct {
	chat     *app.ChatSession
	username func() string
	viewport viewport.Model
	input    textinput.Model
	messages []domain.Message
	fresh    map[string]bool
	attach   bool
	draft    string
	status   string
	err      string
	width    int
}

func newChatModel(chat *app.ChatSession, username func() string, width, height int) chatModel {
	input := textinput.New()
	input.Prompt = messagePrompt
	input.Placeholder = "Type a message…"
	input.CharLimit = 4096
	input.Focus()

	m := chatModel{
		chat:     chat,
		username: username,
		viewport: viewport.New(80, 20),
		input:    input,
		fresh:    map[string]bool{},
	}
	m.resize(width, height)
	m.setMessages(chat.Feed.Messages())
	return m
}

func (m *chatModel) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.width = width
	m.viewport.Width = width
	m.viewport.Height = lo.Max([]int{height - 6, 3})
	m.input.Width = lo.Max([]int{width - len(attachPrompt) - 4, 10})
	m.render()
}

// setMessages replaces the list and marks the messages that were not there before.
func (m *chatModel) setMessages(next []domain.Message) {
	added := feed.Diff(m.messages, next)
	if len(m.messages) == 0 {
		added = nil
	}
	m.fresh = lo.SliceToMap(added, func(id string) (string, bool) { return id, true })
	m.messages = next
	m.render()
	m.viewport.GotoBottom()
}

func (m *chatModel) render() {
	lines := lo.Map(m.messages, func(msg domain.Message, _ int) string {
		return m.renderMessage(msg)
	})
	if len(lines) == 0 {
		lines = []string{hintStyle.Render("No messages yet. Say hello!")}
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
}

func (m *chatModel) renderMessage(msg domain.Message) string {
	author := authorStyle
	if msg.User == m.username() {
		author = ownStyle
	}
	stamp := hintStyle.Render(msg.CreatedAt.Local().Format("15:04"))
	line := fmt.Sprintf("%s %s", stamp, author.Render(msg.User))
	if msg.Text != "" {
		line += " " + msg.Text
	}
	if msg.HasImage() {
		line += " " + imageStyle.Render("[image] "+msg.ImageURL)
	}
	if m.fresh[msg.ID] {
		line += " " + freshStyle.Render("•")
	}
	return line
}

func (m chatModel) Update(msg tea.Msg) (chatModel, tea.Cmd) {
	switch msg := msg.(type) {
	case feedMsg:
		m.setMessages(msg.messages)
		return m, nil
	case uploadDoneMsg:
		m.status = ""
		if msg.err != nil {
			m.err = "Upload failed: " + msg.err.Error()
		}
		return m, nil
	case sendDoneMsg:
		m.status = ""
		if msg.err != nil {
			m.err = "Send failed: " + msg.err.Error()
			return m, nil
		}
		if msg.sent {
			m.input.SetValue(m.chat.Composer.Text())
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlL:
			return m, func() tea.Msg { return logoutMsg{} }
		case tea.KeyCtrlO:
			m.toggleAttach()
			return m, textinput.Blink
		case tea.KeyEsc:
			if m.attach {
				m.toggleAttach()
			}
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyCtrlP:
			m.err = ""
			m.status = "sending…"
			return m, func() tea.Msg { return sendImageMsg{} }
		case tea.KeyEnter:
			m.err = ""
			if m.attach {
				uri := strings.TrimSpace(m.input.Value())
				m.toggleAttach()
				if uri == "" {
					return m, nil
				}
				m.status = "uploading…"
				return m, func() tea.Msg { return uploadMsg{uri: uri} }
			}
			m.status = "sending…"
			return m, func() tea.Msg { return sendMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if !m.attach {
		m.chat.Composer.SetText(m.input.Value())
	}
	return m, cmd
}

// toggleAttach switches the input between the message and an image path,
// keeping the typed message aside.
func (m *chatModel) toggleAttach() {
	m.attach = !m.attach
	if m.attach {
		m.draft = m.input.Value()
		m.input.Prompt = attachPrompt
		m.input.Placeholder = "/path/to/picture.jpg or https://…"
		m.input.SetValue("")
		return
	}
	m.input.Prompt = messagePrompt
	m.input.Placeholder = "Type a message…"
	m.input.SetValue(m.draft)
	m.input.CursorEnd()
}

func (m chatModel) View() string {
	header := headerStyle.Render("chat-app · " + m.username())

	uploading, sending := m.chat.Composer.Busy()
	var footer []string
	if pending := m.chat.Composer.PendingImage(); pending != "" {
		footer = append(footer, imageStyle.Render("attached: "+pending+" (ctrl+p to send)"))
	}
	switch {
	case uploading || sending || m.status != "":
		footer = append(footer, statusStyle.Render(lo.Ternary(m.status != "", m.status, "working…")))
	case m.err != "":
		footer = append(footer, errorStyle.Render(m.err))
	}
	footer = append(footer, hintStyle.Render("enter send · ctrl+o attach image · ctrl+p send image · ctrl+l log out · ctrl+c quit"))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		composeStyle.Render(m.input.View()),
		strings.Join(footer, "\n"),
	)
}
