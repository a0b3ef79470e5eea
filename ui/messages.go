package ui

import (
	"chat-app/app"
	"chat-app/domain"

	tea "github.com/charmbracelet/bubbletea"
)

type startedMsg struct{ restored bool }

type authStateMsg struct{ session *domain.Session }

type loginDoneMsg struct{ err error }

type chatOpenedMsg struct {
	chat *app.ChatSession
	err  error
}

type feedMsg struct {
	chat     *app.ChatSession
	messages []domain.Message
}

type uploadDoneMsg struct{ err error }

type sendDoneMsg struct {
	sent bool
	err  error
}

type logoutDoneMsg struct{ err error }

// latest is a one-slot mailbox: a newer value replaces an unread one.
type latest[T any] chan T

func newLatest[T any]() latest[T] {
	return make(latest[T], 1)
}

// put never blocks.
func (l latest[T]) put(v T) {
	for {
		select {
		case l <- v:
			return
		default:
			select {
			case <-l:
			default:
			}
		}
	}
}

// wait turns the next value into a tea.Msg. A closed mailbox yields no message.
func wait[T any](l latest[T], wrap func(T) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-l
		if !ok {
			return nil
		}
		return wrap(v)
	}
}
