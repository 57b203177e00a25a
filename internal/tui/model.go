// Package tui is the terminal presentation of a conversation: a scrollable
// list of message rows above an input bar.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/comigor/duochat/internal/conversation"
	"github.com/comigor/duochat/internal/session"
)

const (
	eventBuffer = 32
	inputHeight = 1
)

// sessionEventMsg wraps events published by the session
type sessionEventMsg struct {
	event session.Event
}

// sendResultMsg reports the outcome of a send
type sendResultMsg struct {
	text string
	err  error
}

// Model is the Bubble Tea model of the conversation screen
type Model struct {
	session     *session.Session
	log         *slog.Logger
	peer        string
	events      chan session.Event // Fed by the session subscription
	unsubscribe func()

	viewport viewport.Model
	input    textarea.Model
	width    int
	height   int

	rows        []conversation.Row
	animatingID uuid.UUID
	err         error
	errOp       session.Operation // What failed, for the error line
}

// NewModel subscribes to sess and builds the conversation screen.
func NewModel(sess *session.Session, peer string, log *slog.Logger) Model {
	events := make(chan session.Event, eventBuffer)
	unsubscribe := sess.Subscribe(func(evt session.Event) {
		select {
		case events <- evt:
		default:
			log.Debug("dropping session event", "event", fmt.Sprintf("%T", evt))
		}
	})

	input := textarea.New()
	input.Placeholder = "Message " + peer
	input.ShowLineNumbers = false
	input.Prompt = ""
	input.CharLimit = 0
	input.SetHeight(inputHeight)
	input.KeyMap.InsertNewline.SetEnabled(false)
	input.Focus()

	m := Model{
		session:     sess,
		log:         log,
		peer:        peer,
		events:      events,
		unsubscribe: unsubscribe,
		viewport:    viewport.New(80, 20),
		input:       input,
		width:       80,
		height:      24,
		rows:        sess.Rows(),
		animatingID: sess.AnimatingID(),
	}
	m.refresh()
	return m
}

// Init starts the cursor blink and the event listener
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, listenForEventsCmd(m.events))
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(msg.Width - inputBoxStyle.GetHorizontalFrameSize())
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-m.chromeHeight(), 1)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.unsubscribe()
			m.session.Close()
			return m, tea.Quit

		case tea.KeyEnter:
			text := m.input.Value()
			if strings.TrimSpace(text) == "" {
				return m, nil
			}
			m.input.Reset()
			m.err = nil
			return m, sendCmd(m.session, text)

		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case sendResultMsg:
		if msg.err != nil && !errors.Is(msg.err, session.ErrEmptyInput) {
			m.err = msg.err
			m.errOp = session.OpSend
			m.restoreInput(msg.text)
		}
		return m, nil

	case sessionEventMsg:
		m.handleSessionEvent(msg.event)
		return m, listenForEventsCmd(m.events)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleSessionEvent(evt session.Event) {
	switch e := evt.(type) {
	case session.MessagesChanged:
		m.rows = conversation.Rows(e.Messages)
		m.refresh()

	case session.AnimationStarted:
		m.animatingID = e.ID
		m.refresh()

	case session.AnimationCleared:
		if m.animatingID == e.ID {
			m.animatingID = uuid.Nil
			m.refresh()
		}

	case session.Failed:
		m.err = e.Err
		m.errOp = e.Op
	}
}

// restoreInput puts unsent text back in front of whatever was typed since.
func (m *Model) restoreInput(text string) {
	if current := m.input.Value(); current != "" {
		text += " " + current
	}
	m.input.SetValue(text)
}

// refresh re-renders the rows and keeps the newest message in view.
func (m *Model) refresh() {
	m.viewport.SetContent(renderRows(m.rows, m.viewport.Width, m.animatingID, m.session.Now()))
	m.viewport.GotoBottom()
}

// View renders the conversation screen
func (m Model) View() string {
	sections := []string{m.headerView(), m.viewport.View()}
	if m.err != nil {
		sections = append(sections, errorStyle.Render(errorLine(m.errOp, m.err)))
	}
	sections = append(sections, inputBoxStyle.Render(m.input.View()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) headerView() string {
	bar := lipgloss.JoinHorizontal(lipgloss.Center,
		avatarStyle.Render(initial(m.peer)),
		" ",
		peerNameStyle.Render(m.peer),
	)
	return headerBarStyle.Width(max(m.width-headerBarStyle.GetHorizontalBorderSize(), 0)).Render(bar)
}

func errorLine(op session.Operation, err error) string {
	if op == session.OpLoad {
		return "Couldn't load messages: " + err.Error()
	}
	return "Couldn't send: " + err.Error()
}

// chromeHeight is the number of lines around the viewport.
func (m Model) chromeHeight() int {
	h := lipgloss.Height(m.headerView()) + inputHeight + inputBoxStyle.GetVerticalFrameSize()
	if m.err != nil {
		h++
	}
	return h
}

// listenForEventsCmd waits for the next session event
func listenForEventsCmd(events <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			return nil
		}
		return sessionEventMsg{event: evt}
	}
}

// sendCmd persists text off the update loop
func sendCmd(sess *session.Session, text string) tea.Cmd {
	return func() tea.Msg {
		_, err := sess.SendText(context.Background(), text)
		return sendResultMsg{text: text, err: err}
	}
}

// Run starts the conversation screen and blocks until the user quits.
func Run(ctx context.Context, sess *session.Session, peer string, log *slog.Logger) error {
	p := tea.NewProgram(NewModel(sess, peer, log), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run conversation screen: %w", err)
	}
	return nil
}
