// Package composer holds the draft of a chat screen: the typed text and an
// uploaded image waiting to be sent.
package composer

import (
	"chat-app/contract"
	"chat-app/domain"
	"chat-app/domain/mimetypes"
	"chat-app/errors"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Overrides replace the composer text or pending image for one Send.
// A nil field falls back to the composer state.
type Overrides struct {
	Text     *string
	ImageURL *string
}

type Composer struct {
	log      *slog.Logger
	sender   func() string
	stream   contract.IDocumentStream
	storage  contract.IObjectStorage
	images   contract.IImageSource
	clock    func() time.Time

	mu        sync.RWMutex
	text      string
	pending   string
	uploading bool
	sending   bool
}

// New builds a composer. sender is read on every upload and send, so the
// author follows profile changes made after the chat opened.
func New(log *slog.Logger, sender func() string, stream contract.IDocumentStream,
	storage contract.IObjectStorage, images contract.IImageSource) *Composer {
	return &Composer{
		log:      log,
		sender:   sender,
		stream:   stream,
		storage:  storage,
		images:   images,
		clock:    time.Now,
	}
}

// WithClock replaces the clock used for upload paths.
func (c *Composer) WithClock(clock func() time.Time) *Composer {
	c.clock = clock
	return c
}

func (c *Composer) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
}

func (c *Composer) Text() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.text
}

// PendingImage is the resolved URL of the last successful upload, or "".
func (c *Composer) PendingImage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pending
}

func (c *Composer) Busy() (uploading, sending bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uploading, c.sending
}

// UploadImage uploads a local image and keeps its URL as the pending image.
// On failure the previous pending image is kept. Concurrent uploads are not
// coordinated: the last one to finish wins.
func (c *Composer) UploadImage(ctx context.Context, localURI string) error {
	c.setUploading(true)
	defer c.setUploading(false)

	link, err := c.upload(ctx, localURI)
	if err != nil {
		c.log.Warn("Failed to upload image", "uri", localURI, "error", err)
		return err
	}

	c.mu.Lock()
	c.pending = link
	c.mu.Unlock()
	return nil
}

func (c *Composer) upload(ctx context.Context, localURI string) (string, error) {
	data, err := c.images.Fetch(ctx, localURI)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if mt := mimetypes.Detect(data); !mimetypes.IsImage(mt) {
		return "", fmt.Errorf("%w: %s", errors.ErrNotAnImage, mt)
	}

	path := domain.ImageUploadPath(c.clock().UnixMilli(), c.sender())
	handle, err := c.storage.Upload(ctx, path, data)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	link, err := c.storage.ResolveURL(ctx, handle)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", handle.Path, err)
	}
	return link, nil
}

// Send publishes one message. Without text and image it does nothing and
// reports false. On success the text and the pending image are cleared;
// on failure the composer is left as it was.
func (c *Composer) Send(ctx context.Context, overrides Overrides) (bool, error) {
	c.mu.Lock()
	text := strings.TrimSpace(c.text)
	if overrides.Text != nil {
		text = *overrides.Text
	}
	image := c.pending
	if overrides.ImageURL != nil {
		image = *overrides.ImageURL
	}
	if text == "" && image == "" {
		c.mu.Unlock()
		return false, nil
	}
	c.sending = true
	c.mu.Unlock()

	id, err := c.stream.Append(ctx, domain.MessagesCollection, domain.MessageDraft{
		Text:     text,
		User:     c.sender(),
		ImageURL: image,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false
	if err != nil {
		c.log.Warn("Failed to send message", "error", err)
		return false, err
	}
	c.text = ""
	c.pending = ""
	c.log.Debug("Message sent", "id", id, "has_image", image != "")
	return true, nil
}

// SendImage sends the pending image with the trimmed text as caption.
func (c *Composer) SendImage(ctx context.Context) (bool, error) {
	c.mu.RLock()
	pending := c.pending
	caption := strings.TrimSpace(c.text)
	c.mu.RUnlock()

	if pending == "" {
		return false, nil
	}
	return c.Send(ctx, Overrides{Text: &caption, ImageURL: &pending})
}

func (c *Composer) setUploading(uploading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploading = uploading
}
