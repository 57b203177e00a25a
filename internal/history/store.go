// Package history persists the conversation on the local device.
// Stores are explicitly constructed and passed around; nothing here is
// process-global. Every backend lists messages by ascending timestamp and
// keeps insertion order among equal timestamps.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/comigor/duochat/internal/config"
	"github.com/comigor/duochat/internal/conversation"
)

var (
	ErrDuplicateMessage = errors.New("message already stored")
	ErrInvalidMessage   = errors.New("invalid message")
	ErrUnknownDriver    = errors.New("unknown store driver")
)

// Store is the message persistence boundary used by the chat session.
type Store interface {
	// Append persists msg atomically. A failed append leaves no trace.
	Append(ctx context.Context, msg conversation.Message) error
	// AppendAll persists msgs in one transaction: all of them or none.
	AppendAll(ctx context.Context, msgs []conversation.Message) error
	// List returns every stored message ascending by timestamp.
	List(ctx context.Context) ([]conversation.Message, error)
	// Count returns the number of stored messages.
	Count(ctx context.Context) (int, error)
	Close() error
}

// Open builds the backend named by cfg.Driver.
func Open(cfg config.StoreConfig, log *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		store, err := NewSQLiteStore(cfg.Path, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "badger":
		store, err := NewBadgerStore(cfg.Path, false, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// record is the stored shape of a message, shared by the backends.
type record struct {
	ID              uuid.UUID `json:"id" validate:"required"`
	Text            string    `json:"text" validate:"required"`
	SentAt          int64     `json:"sent_at"`
	SentByLocalUser bool      `json:"sent_by_local_user"`
}

var validate = validator.New()

// Timestamps are stored as int64 Unix nanoseconds, which covers the years
// 1677 to 2262.
var (
	minTimestamp = time.Unix(0, math.MinInt64)
	maxTimestamp = time.Unix(0, math.MaxInt64)
)

func newRecord(msg conversation.Message) (record, error) {
	if msg.Timestamp.Before(minTimestamp) || msg.Timestamp.After(maxTimestamp) {
		return record{}, fmt.Errorf("%w: timestamp %s out of range", ErrInvalidMessage, msg.Timestamp)
	}
	r := record{
		ID:              msg.ID,
		Text:            msg.Text,
		SentAt:          msg.Timestamp.UnixNano(),
		SentByLocalUser: msg.SentByLocalUser,
	}
	if err := validate.Struct(r); err != nil {
		return record{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return r, nil
}

// newRecords validates a batch, including IDs repeated within it.
func newRecords(msgs []conversation.Message) ([]record, error) {
	records := make([]record, 0, len(msgs))
	seen := make(map[uuid.UUID]struct{}, len(msgs))
	for _, msg := range msgs {
		r, err := newRecord(msg)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[r.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMessage, r.ID)
		}
		seen[r.ID] = struct{}{}
		records = append(records, r)
	}
	return records, nil
}

func (r record) message() conversation.Message {
	return conversation.Message{
		ID:              r.ID,
		Text:            r.Text,
		Timestamp:       time.Unix(0, r.SentAt).UTC(),
		SentByLocalUser: r.SentByLocalUser,
	}
}
