package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	primaryColor   = lipgloss.Color("#F06C9B") // Rose pink
	peerColor      = lipgloss.Color("#3A3A44") // Slate grey
	mutedColor     = lipgloss.Color("#9A9AA6") // Light grey
	fgColor        = lipgloss.Color("#F5F3ED") // Warm white
	highlightColor = lipgloss.Color("#F7B2CA") // Pale pink
	errorColor     = lipgloss.Color("#E07B7B")
)

// Styles
var (
	headerBarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(mutedColor).
			Padding(0, 1)

	avatarStyle = lipgloss.NewStyle().
			Foreground(fgColor).
			Background(primaryColor).
			Bold(true).
			Padding(0, 1)

	peerNameStyle = lipgloss.NewStyle().
			Foreground(fgColor).
			Bold(true)

	timestampStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	emojiStyle = lipgloss.NewStyle().
			Bold(true)

	myBubbleStyle = lipgloss.NewStyle().
			Foreground(fgColor).
			Background(primaryColor).
			Padding(0, 1)

	peerBubbleStyle = lipgloss.NewStyle().
			Foreground(fgColor).
			Background(peerColor).
			Padding(0, 1)

	animatingStyle = lipgloss.NewStyle().
			Foreground(peerColor).
			Background(highlightColor).
			Bold(true).
			Padding(0, 1)

	myTailStyle = lipgloss.NewStyle().
			Foreground(primaryColor)

	peerTailStyle = lipgloss.NewStyle().
			Foreground(peerColor)

	receiptStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)
)
