package cache

import (
	"chat-app/contract"
	"chat-app/domain"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

// MessageCache keeps the last observed feed snapshot for instant display.
// Every Save overwrites the whole snapshot.
type MessageCache struct {
	store contract.IBlobStore
	limit int
}

// NewMessageCache keeps at most limit newest messages; 0 disables the cap.
func NewMessageCache(store contract.IBlobStore, limit int) *MessageCache {
	return &MessageCache{store: store, limit: limit}
}

func (c *MessageCache) Load() ([]domain.Message, error) {
	raw, err := c.store.Get(MessagesKey)
	if err != nil {
		return nil, err
	}
	var messages []domain.Message
	if err = json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("decode cached messages: %w", err)
	}
	return messages, nil
}

func (c *MessageCache) Save(messages []domain.Message) error {
	if c.limit > 0 {
		messages = lo.Subset(messages, -c.limit, uint(c.limit))
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	return c.store.Set(MessagesKey, raw)
}
