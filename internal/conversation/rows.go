package conversation

import "github.com/samber/lo"

// Row is the display metadata derived for one message of a conversation.
type Row struct {
	Message    Message
	Kind       Kind
	ShowHeader bool
	Grouped    bool
	ShowTail   bool
}

// Rows derives display metadata for an ordered conversation in one pass.
// Each decision looks only at the message and its immediate predecessor.
// System banners never join a bubble run, in either direction.
func Rows(messages []Message) []Row {
	return lo.Map(messages, func(message Message, i int) Row {
		var previous *Message
		if i > 0 {
			previous = &messages[i-1]
		}
		kind := KindOf(message)
		grouped := ShouldGroupWithPrevious(message, previous)
		if kind == KindSystem || (previous != nil && IsSystemMessage(*previous)) {
			grouped = false
		}
		return Row{
			Message:    message,
			Kind:       kind,
			ShowHeader: ShouldShowTimestampHeader(message, previous),
			Grouped:    grouped,
			ShowTail:   !grouped,
		}
	})
}
