//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const messagePrefix = "msg:"

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	ListSince(cursor *string) ([]DiskMessage, *string, error)
	Clear() error
}

// DiskMessage is the storage-layer representation of a chat message.
type DiskMessage struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Content  string    `json:"message"`
	Lang     string    `json:"lang,omitempty"`
	At       time.Time `json:"timestamp"`
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// StoreMessage persists one message in BadgerDB.
// The key is "msg:{timestamp_padded}:{uuid}" so that:
//  1. 19-digit zero padding keeps keys in chronological order lexicographically.
//  2. The UUID suffix disambiguates two messages appended at the same nanosecond.
//
// The log is append-only: no update or delete path exists besides Clear.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	key := fmt.Sprintf("%s%019d:%s", messagePrefix, message.At.UnixNano(), message.ID)
	value, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// ListSince returns messages oldest-first, starting after the given cursor
// (nil means from the beginning). The returned cursor points at the last
// message read and can be fed back to continue the scan. It stops once the
// configured limitMessages is reached.
func (m MessageRepository) ListSince(cursor *string) ([]DiskMessage, *string, error) {
	var messages []DiskMessage
	var lastKey string

	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		if cursor == nil {
			it.Seek(prefix)
		} else {
			it.Seek(append(prefix, []byte(*cursor)...))
			// The cursor names the last message already delivered; skip it.
			if it.ValidForPrefix(prefix) {
				it.Next()
			}
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(messagePrefix):])
			err := item.Value(func(value []byte) error {
				var message DiskMessage
				if err := json.Unmarshal(value, &message); err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if lastKey == "" {
		return messages, cursor, nil
	}
	return messages, &lastKey, nil
}

// Clear drops every message key. Exposed for the test automation endpoint.
func (m MessageRepository) Clear() error {
	m.log.Info("Clearing all stored messages")
	return m.db.DropPrefix([]byte(messagePrefix))
}
