package conversation

import "time"

const (
	// HeaderGap is the silence after which a new timestamp header is shown.
	// The comparison is strict: a gap of exactly HeaderGap shows no header.
	HeaderGap = time.Hour

	// GroupWindow is the largest gap between two messages of the same sender
	// that still merges them into one bubble run. The bound is inclusive.
	GroupWindow = 20 * time.Second
)

// ShouldShowTimestampHeader reports whether message opens a new time section.
// previous is the message immediately before it in timestamp order, or nil
// for the first message of the conversation.
func ShouldShowTimestampHeader(message Message, previous *Message) bool {
	if previous == nil {
		return true
	}
	return gap(message, *previous) > HeaderGap
}

// ShouldGroupWithPrevious reports whether message is drawn tight against its
// predecessor, without the bubble tail. Grouping never crosses a change of
// sender.
func ShouldGroupWithPrevious(message Message, previous *Message) bool {
	if previous == nil {
		return false
	}
	if previous.SentByLocalUser != message.SentByLocalUser {
		return false
	}
	return gap(message, *previous) <= GroupWindow
}

func gap(a, b Message) time.Duration {
	d := a.Timestamp.Sub(b.Timestamp)
	if d < 0 {
		return -d
	}
	return d
}
