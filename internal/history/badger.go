package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/comigor/duochat/internal/conversation"
)

const (
	messagePrefix = "msg:"
	idPrefix      = "id:"
	sequenceKey   = "seq:msg"
)

// BadgerStore keeps messages in BadgerDB.
//
// Message keys are "msg:{timestamp}:{sequence}", both parts zero padded to
// 20 digits, so a prefix scan yields timestamp order with insertion order as
// the tie breaker. "id:{uuid}" points back at the message key and guards
// against duplicates.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

// NewBadgerStore opens a store rooted at dir. With inMemory set, dir is
// ignored and nothing touches the disk.
func NewBadgerStore(dir string, inMemory bool, log *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	db, err := badger.Open(opts.WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", dir, err)
	}
	seq, err := db.GetSequence([]byte(sequenceKey), 64)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("badger sequence: %w", err)
	}
	log.Info("badger message store initialized", "path", dir, "in_memory", inMemory)
	return &BadgerStore{db: db, seq: seq, log: log}, nil
}

// orderedNanos shifts the signed timestamp into an unsigned range so that
// lexicographic key order matches chronological order, pre-1970 included.
func orderedNanos(ns int64) uint64 {
	return uint64(ns) ^ (1 << 63)
}

func messageKey(r record, n uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d:%020d", messagePrefix, orderedNanos(r.SentAt), n))
}

func (s *BadgerStore) Append(ctx context.Context, msg conversation.Message) error {
	return s.AppendAll(ctx, []conversation.Message{msg})
}

func (s *BadgerStore) AppendAll(ctx context.Context, msgs []conversation.Message) error {
	records, err := newRecords(msgs)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	type entry struct {
		key, idKey, value []byte
		id                string
	}
	entries := make([]entry, 0, len(records))
	for _, r := range records {
		value, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
		n, err := s.seq.Next()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		entries = append(entries, entry{
			key:   messageKey(r, n),
			idKey: []byte(idPrefix + r.ID.String()),
			value: value,
			id:    r.ID.String(),
		})
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, e := range entries {
			_, err := txn.Get(e.idKey)
			switch {
			case err == nil:
				return fmt.Errorf("%w: %s", ErrDuplicateMessage, e.id)
			case !errors.Is(err, badger.ErrKeyNotFound):
				return err
			}
			if err := txn.Set(e.key, e.value); err != nil {
				return err
			}
			if err := txn.Set(e.idKey, e.key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append messages: %w", err)
	}
	s.log.Debug("messages stored", "count", len(entries), "backend", "badger")
	return nil
}

func (s *BadgerStore) List(ctx context.Context) ([]conversation.Message, error) {
	var out []conversation.Message
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(messagePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var r record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, r.message())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(messagePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return ctx.Err()
	})
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		s.log.Warn("badger sequence release failed", "error", err)
	}
	return s.db.Close()
}
