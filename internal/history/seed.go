package history

import (
	"context"
	"fmt"
	"time"

	"github.com/comigor/duochat/internal/conversation"
)

// Fixtures returns the demo conversation, anchored at now: an old match
// announcement followed by a short exchange from the last minute.
func Fixtures(now time.Time) []conversation.Message {
	return []conversation.Message{
		conversation.New("You matched 🌹", now.Add(-300*24*time.Hour), false),
		conversation.New("Hey! Did you also go to Oxford?", now.Add(-60*time.Second), false),
		conversation.New("Yes 😎 Are you going to the food festival on Sunday?", now.Add(-50*time.Second), true),
		conversation.New("🙏", now.Add(-30*time.Second), false),
		conversation.New("I am! 😊 See you there for a coffee?", now.Add(-20*time.Second), false),
	}
}

// SeedIfEmpty appends the fixtures in one batch when the store holds no
// message yet and reports whether it did. A failed seed stores nothing.
func SeedIfEmpty(ctx context.Context, store Store, now time.Time) (bool, error) {
	n, err := store.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count before seeding: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if err := store.AppendAll(ctx, Fixtures(now)); err != nil {
		return false, fmt.Errorf("seed messages: %w", err)
	}
	return true, nil
}
