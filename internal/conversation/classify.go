package conversation

import (
	"strings"
	"unicode"
)

// Kind tells the presentation layer how to draw a message.
type Kind int

const (
	// KindBubble is a regular sender-attributed bubble.
	KindBubble Kind = iota
	// KindEmoji is drawn oversized without a bubble background.
	KindEmoji
	// KindSystem is drawn as a centered banner without sender attribution.
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindEmoji:
		return "emoji"
	case KindSystem:
		return "system"
	default:
		return "bubble"
	}
}

var systemSentinels = []string{
	"You matched",
	"matched 🌹",
}

// IsSystemMessage reports whether the text carries a conversation-level
// notification such as a match announcement. Matching is a case-sensitive
// substring test.
func IsSystemMessage(message Message) bool {
	for _, sentinel := range systemSentinels {
		if strings.Contains(message.Text, sentinel) {
			return true
		}
	}
	return false
}

// IsEmojiOnly reports whether the trimmed text is non-empty and made solely
// of scalars with default emoji presentation. Joiners, variation selectors
// and plain text all disqualify the message.
func IsEmojiOnly(message Message) bool {
	trimmed := strings.TrimSpace(message.Text)
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		if !unicode.Is(emojiPresentation, r) {
			return false
		}
	}
	return true
}

// KindOf classifies a message. System notifications win over emoji-only text.
func KindOf(message Message) Kind {
	switch {
	case IsSystemMessage(message):
		return KindSystem
	case IsEmojiOnly(message):
		return KindEmoji
	default:
		return KindBubble
	}
}
