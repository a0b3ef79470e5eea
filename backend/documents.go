package backend

import (
	"chat-app/domain"
	"chat-app/repositories"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Documents is the live document database. Every append is pushed to the
// watchers of its collection as a full snapshot ordered by creation time.
type Documents struct {
	log      *slog.Logger
	repo     repositories.IMessageRepository
	registry *Registry
	clock    func() time.Time

	// mu serializes appends with snapshot reads so watchers observe
	// snapshots in commit order.
	mu   sync.Mutex
	last map[string]time.Time
}

func NewDocuments(log *slog.Logger, repo repositories.IMessageRepository, registry *Registry) *Documents {
	return &Documents{
		log:      log,
		repo:     repo,
		registry: registry,
		clock:    time.Now,
		last:     make(map[string]time.Time),
	}
}

// Append stores the draft with a server-assigned id and timestamp.
func (d *Documents) Append(_ context.Context, collection string, draft domain.MessageDraft) (domain.Message, error) {
	if err := draft.Validate(); err != nil {
		return domain.Message{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	at, err := d.nextTimestamp(collection)
	if err != nil {
		return domain.Message{}, err
	}
	message := domain.Message{
		ID:        uuid.NewString(),
		Text:      draft.Text,
		User:      draft.User,
		CreatedAt: at,
		ImageURL:  draft.ImageURL,
	}
	if err = d.repo.StoreMessage(collection, message); err != nil {
		return domain.Message{}, fmt.Errorf("store message: %w", err)
	}
	d.last[collection] = at

	watchers := d.registry.WatchersOf(collection)
	if len(watchers) > 0 {
		snapshot, err := d.repo.GetMessages(collection)
		if err != nil {
			d.log.Error("Snapshot read failed", "collection", collection, "error", err)
			return message, nil
		}
		for _, w := range watchers {
			w.Deliver(snapshot)
		}
	}
	d.log.Debug("Document appended", "collection", collection, "id", message.ID, "watchers", len(watchers))
	return message, nil
}

// Watch calls fn with the current snapshot, then after every append, until ctx is done.
func (d *Documents) Watch(ctx context.Context, collection string, fn func([]domain.Message)) error {
	watcher := NewWatcher()
	id := uuid.NewString()

	d.mu.Lock()
	snapshot, err := d.repo.GetMessages(collection)
	if err != nil {
		d.mu.Unlock()
		return fmt.Errorf("initial snapshot: %w", err)
	}
	d.registry.Subscribe(id, collection, watcher)
	d.mu.Unlock()
	defer d.registry.Unsubscribe(id, collection)

	fn(snapshot)
	for {
		select {
		case <-ctx.Done():
			d.log.Debug("Watcher detached", "collection", collection, "watcher", id)
			return nil
		case next := <-watcher.Snapshots:
			fn(next)
		}
	}
}

// nextTimestamp returns a strictly increasing creation time per collection,
// so equal timestamps never need a tie-break.
func (d *Documents) nextTimestamp(collection string) (time.Time, error) {
	last, ok := d.last[collection]
	if !ok {
		var err error
		if last, err = d.repo.LastCreatedAt(collection); err != nil {
			return time.Time{}, err
		}
	}
	now := time.Unix(0, d.clock().UnixNano()).UTC()
	if !now.After(last) {
		now = last.Add(time.Nanosecond)
	}
	return now, nil
}
