package history

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/comigor/duochat/internal/conversation"
)

// MemoryStore is a Store that lives and dies with the process.
type MemoryStore struct {
	mu       sync.RWMutex
	messages []conversation.Message
	ids      map[uuid.UUID]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ids: make(map[uuid.UUID]struct{})}
}

func (s *MemoryStore) Append(ctx context.Context, msg conversation.Message) error {
	return s.AppendAll(ctx, []conversation.Message{msg})
}

func (s *MemoryStore) AppendAll(ctx context.Context, msgs []conversation.Message) error {
	if _, err := newRecords(msgs); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range msgs {
		if _, ok := s.ids[msg.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateMessage, msg.ID)
		}
	}
	for _, msg := range msgs {
		// Insert after every message with an equal or earlier timestamp.
		i := sort.Search(len(s.messages), func(i int) bool {
			return s.messages[i].Timestamp.After(msg.Timestamp)
		})
		s.messages = slices.Insert(s.messages, i, msg)
		s.ids[msg.ID] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]conversation.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages), nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages), nil
}

func (s *MemoryStore) Close() error { return nil }
