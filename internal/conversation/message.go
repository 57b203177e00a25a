// Package conversation holds the message value of the single two-party
// conversation and the rules that decide how a sequence of messages is laid
// out: which ones get a timestamp header, which ones merge into the bubble
// run of their predecessor, and how each one is classified.
//
// Everything here is pure and safe for concurrent use.
package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Message is a single immutable chat message.
type Message struct {
	ID              uuid.UUID
	Text            string
	Timestamp       time.Time
	SentByLocalUser bool
}

// New builds a message with a fresh random ID.
func New(text string, at time.Time, sentByLocalUser bool) Message {
	return Message{
		ID:              uuid.New(),
		Text:            text,
		Timestamp:       at,
		SentByLocalUser: sentByLocalUser,
	}
}

// Equal reports whether both values denote the same message. Identity is the
// ID alone; content is not compared.
func (m Message) Equal(other Message) bool {
	return m.ID == other.ID
}

// Sender returns a short label for the author.
func (m Message) Sender() string {
	if m.SentByLocalUser {
		return "me"
	}
	return "peer"
}
