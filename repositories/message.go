package repositories

import (
	"chat-app/domain"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	StoreMessage(collection string, message domain.Message) error
	GetMessages(collection string) ([]domain.Message, error)
	LastCreatedAt(collection string) (time.Time, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

type diskMessage struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	User     string `json:"user"`
	At       int64  `json:"at"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "doc:{collection}:{timestamp_padded}:{id}" so that
// a prefix scan returns the collection ordered by creation time.
func (m *MessageRepository) StoreMessage(collection string, message domain.Message) error {
	key := messageKey(collection, message)
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, bytes)
	})
}

// GetMessages returns the whole collection, oldest first.
func (m *MessageRepository) GetMessages(collection string) ([]domain.Message, error) {
	var diskMessages []diskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := collectionPrefix(collection)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var dm diskMessage
				if err := json.Unmarshal(value, &dm); err != nil {
					return err
				}
				diskMessages = append(diskMessages, dm)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.log.Debug("Collection read", "collection", collection, "count", len(diskMessages))
	return lo.Map(diskMessages, func(dm diskMessage, _ int) domain.Message {
		return toMessage(dm)
	}), nil
}

// LastCreatedAt returns the creation time of the newest message, or the zero time.
func (m *MessageRepository) LastCreatedAt(collection string) (time.Time, error) {
	var last time.Time
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := collectionPrefix(collection)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the highest possible padded timestamp
		it.Seek(append(prefix, []byte("9999999999999999999")...))
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		return it.Item().Value(func(value []byte) error {
			var dm diskMessage
			if err := json.Unmarshal(value, &dm); err != nil {
				return err
			}
			last = time.Unix(0, dm.At).UTC()
			return nil
		})
	})
	return last, err
}

func collectionPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("doc:%s:", collection))
}

func messageKey(collection string, message domain.Message) []byte {
	return []byte(fmt.Sprintf("doc:%s:%019d:%s", collection, message.CreatedAt.UnixNano(), message.ID))
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:       message.ID,
		Text:     message.Text,
		User:     message.User,
		At:       message.CreatedAt.UnixNano(),
		ImageURL: message.ImageURL,
	}
}

func toMessage(dm diskMessage) domain.Message {
	return domain.Message{
		ID:        dm.ID,
		Text:      dm.Text,
		User:      dm.User,
		CreatedAt: time.Unix(0, dm.At).UTC(),
		ImageURL:  dm.ImageURL,
	}
}
