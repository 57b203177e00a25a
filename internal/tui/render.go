package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/comigor/duochat/internal/conversation"
)

const (
	myTail    = "◣"
	peerTail  = "◢"
	noTail    = " "
	receipt   = "✓✓"
	minBubble = 12
)

// renderRows lays out the conversation for a viewport of the given width.
// Non-grouped rows get a blank line above them unless a timestamp header
// already separates them from the previous row.
func renderRows(rows []conversation.Row, width int, animatingID uuid.UUID, now time.Time) string {
	lines := make([]string, 0, len(rows)*2)
	for i, row := range rows {
		switch {
		case row.ShowHeader:
			if i > 0 {
				lines = append(lines, "")
			}
			label := timestampStyle.Render(conversation.HeaderLabel(row.Message.Timestamp, now))
			lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Center, label))
		case !row.Grouped && i > 0:
			lines = append(lines, "")
		}
		animating := animatingID != uuid.Nil && row.Message.ID == animatingID
		lines = append(lines, renderRow(row, width, animating))
	}
	return strings.Join(lines, "\n")
}

func renderRow(row conversation.Row, width int, animating bool) string {
	msg := row.Message
	switch row.Kind {
	case conversation.KindSystem:
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, systemStyle.Render(msg.Text))
	case conversation.KindEmoji:
		style := emojiStyle
		if animating {
			style = animatingStyle
		}
		return align(width, msg.SentByLocalUser, style.Render(msg.Text))
	}

	style := peerBubbleStyle
	text := msg.Text
	if msg.SentByLocalUser {
		style = myBubbleStyle
		text += "  " + receiptStyle.Render(receipt)
	}
	if animating {
		style = animatingStyle
	}
	if limit := bubbleWidth(width); lipgloss.Width(text)+style.GetHorizontalFrameSize() > limit {
		style = style.Width(limit)
	}
	bubble := style.Render(text)

	tail := noTail
	if row.ShowTail {
		if msg.SentByLocalUser {
			tail = myTailStyle.Render(myTail)
		} else {
			tail = peerTailStyle.Render(peerTail)
		}
	}
	if msg.SentByLocalUser {
		bubble = lipgloss.JoinHorizontal(lipgloss.Bottom, bubble, tail)
	} else {
		bubble = lipgloss.JoinHorizontal(lipgloss.Bottom, tail, bubble)
	}
	return align(width, msg.SentByLocalUser, bubble)
}

// bubbleWidth caps a bubble at two thirds of the viewport.
func bubbleWidth(width int) int {
	return max(width*2/3, minBubble)
}

func align(width int, mine bool, block string) string {
	if mine {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}
	return block
}

// initial is the avatar letter shown for a peer name.
func initial(name string) string {
	for _, r := range strings.TrimSpace(name) {
		return strings.ToUpper(string(r))
	}
	return "?"
}
