// Package feed keeps the ordered message list of a chat screen in sync with
// the live collection and mirrors every snapshot into the message cache.
package feed

import (
	"chat-app/cache"
	"chat-app/contract"
	"chat-app/domain"
	"chat-app/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Controller runs Idle -> Hydrating -> Live -> Unsubscribed.
// Listeners registered with OnChange are called with the delivery lock held:
// they may read the controller but must not call Unmount.
type Controller struct {
	log        *slog.Logger
	stream     contract.IDocumentStream
	cache      *cache.MessageCache
	collection string

	// delivery serializes snapshot handling with Unmount.
	delivery sync.Mutex

	mu          sync.RWMutex
	state       domain.FeedState
	messages    []domain.Message
	listeners   map[string]func([]domain.Message)
	unsubscribe func()
	once        sync.Once
}

func NewController(log *slog.Logger, stream contract.IDocumentStream, messages *cache.MessageCache) *Controller {
	return &Controller{
		log:        log,
		stream:     stream,
		cache:      messages,
		collection: domain.MessagesCollection,
		listeners:  make(map[string]func([]domain.Message)),
	}
}

// Mount publishes the cached snapshot, then opens the live subscription.
// A subscribe error is returned and the controller stays Hydrating.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.state != domain.FeedIdle {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("feed already %s", state)
	}
	c.state = domain.FeedHydrating
	c.mu.Unlock()

	cached, err := c.cache.Load()
	switch {
	case stderrors.Is(err, errors.ErrCacheMiss):
	case err != nil:
		c.log.Warn("Failed to load cached messages", "error", err)
	default:
		c.publish(cached, false)
	}

	unsubscribe, err := c.stream.Subscribe(ctx, c.collection,
		func(messages []domain.Message) { c.publish(messages, true) },
		func(err error) { c.log.Error("Message subscription failed", "collection", c.collection, "error", err) })
	if err != nil {
		c.log.Error("Failed to subscribe to messages", "collection", c.collection, "error", err)
		return err
	}

	c.mu.Lock()
	if c.state == domain.FeedUnsubscribed {
		c.mu.Unlock()
		unsubscribe()
		return nil
	}
	c.unsubscribe = unsubscribe
	c.state = domain.FeedLive
	c.mu.Unlock()
	c.log.Debug("Feed live", "collection", c.collection)
	return nil
}

// Unmount tears the subscription down once. Once it returns, no cache write
// or listener call happens.
func (c *Controller) Unmount() {
	c.once.Do(func() {
		c.delivery.Lock()
		defer c.delivery.Unlock()

		c.mu.Lock()
		unsubscribe := c.unsubscribe
		c.unsubscribe = nil
		c.state = domain.FeedUnsubscribed
		c.mu.Unlock()

		if unsubscribe != nil {
			unsubscribe()
		}
		c.log.Debug("Feed unmounted", "collection", c.collection)
	})
}

// Messages returns the current snapshot, ordered by creation time.
func (c *Controller) Messages() []domain.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Message(nil), c.messages...)
}

func (c *Controller) State() domain.FeedState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// OnChange registers fn for every published snapshot.
func (c *Controller) OnChange(fn func(messages []domain.Message)) func() {
	id := uuid.NewString()
	c.mu.Lock()
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// publish replaces the whole list; live snapshots are also written to the cache.
func (c *Controller) publish(messages []domain.Message, live bool) {
	c.delivery.Lock()
	defer c.delivery.Unlock()

	c.mu.Lock()
	if c.state == domain.FeedUnsubscribed {
		c.mu.Unlock()
		return
	}
	c.messages = append([]domain.Message(nil), messages...)
	listeners := lo.Values(c.listeners)
	c.mu.Unlock()

	if live {
		if err := c.cache.Save(messages); err != nil {
			c.log.Warn("Failed to persist messages", "error", err)
		}
	}
	for _, fn := range listeners {
		fn(c.Messages())
	}
}

// Diff returns the ids present in next but not in prev, in next's order.
func Diff(prev, next []domain.Message) []string {
	id := func(m domain.Message, _ int) string { return m.ID }
	_, added := lo.Difference(lo.Map(prev, id), lo.Map(next, id))
	return added
}
