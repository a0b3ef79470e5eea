// Package domain contains core concepts of the chat client.
// This file defines Message records and the drafts the composer publishes.
// Messages are immutable once the backend has accepted them.
package domain

import (
	"chat-app/errors"
	"strings"
	"time"
)

// MessagesCollection is the backend collection holding the chat feed.
const MessagesCollection = "messages"

// Message is a published chat record as delivered by the live stream.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	ImageURL  string    `json:"imageUrl,omitempty"`
}

// HasImage reports whether the message carries an attachment.
func (m Message) HasImage() bool {
	return m.ImageURL != ""
}

// MessageDraft is what a client submits. The backend assigns ID and CreatedAt.
type MessageDraft struct {
	Text     string
	User     string
	ImageURL string
}

// Validate enforces that a draft carries at least a text or an image.
func (d MessageDraft) Validate() error {
	if strings.TrimSpace(d.Text) == "" && d.ImageURL == "" {
		return errors.ErrEmptyMessage
	}
	return nil
}

// IsEmpty is true when publishing the draft would be a no-op.
func (d MessageDraft) IsEmpty() bool {
	return d.Text == "" && d.ImageURL == ""
}
