// Package session holds the live state of the conversation screen: the
// ordered message list, the input text and the transient "animating" marker
// on a freshly sent message. Presentation code subscribes to it explicitly
// and re-derives layout with conversation.Rows on every change.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"

	"github.com/comigor/duochat/internal/conversation"
	"github.com/comigor/duochat/internal/history"
)

// DefaultAnimationDelay is how long a sent message stays marked as animating.
const DefaultAnimationDelay = 500 * time.Millisecond

var (
	ErrEmptyInput = errors.New("nothing to send")
	ErrClosed     = errors.New("session closed")
)

// FSM states
type sessionState string

const (
	stateIdle      sessionState = "Idle"
	stateAnimating sessionState = "Animating"
	stateClosed    sessionState = "Closed"
)

// FSM triggers
type sessionTrigger string

const (
	triggerSent     sessionTrigger = "Sent"
	triggerElapsed  sessionTrigger = "AnimationElapsed"
	triggerShutdown sessionTrigger = "Shutdown"
)

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now as the source of send timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithAnimationDelay sets how long a sent message stays marked as animating.
func WithAnimationDelay(d time.Duration) Option {
	return func(s *Session) { s.delay = d }
}

// Session is safe for concurrent use. Subscribers are always invoked
// outside the session lock.
type Session struct {
	store history.Store
	log   *slog.Logger
	now   func() time.Time
	delay time.Duration

	mu          sync.Mutex
	fsm         *stateless.StateMachine
	messages    []conversation.Message
	input       string
	animatingID uuid.UUID
	timer       *time.Timer
	generation  uint64
	outbox      []Event
	subscribers map[int]func(Event)
	nextSub     int
}

// New builds a session over store and loads the conversation from it.
func New(ctx context.Context, store history.Store, log *slog.Logger, opts ...Option) (*Session, error) {
	s := &Session{
		store:       store,
		log:         log,
		now:         time.Now,
		delay:       DefaultAnimationDelay,
		subscribers: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.fsm = s.newStateMachine()

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// newStateMachine wires the animation lifecycle.
//
//	Idle      --Sent-->             Animating
//	Animating --Sent-->             Animating (reentry: reschedules)
//	Animating --AnimationElapsed--> Idle
//	*         --Shutdown-->         Closed
//
// Entering Animating schedules the clear, leaving it cancels the timer.
// Every transition runs with s.mu held.
func (s *Session) newStateMachine() *stateless.StateMachine {
	fsm := stateless.NewStateMachine(stateIdle)

	fsm.Configure(stateIdle).
		Permit(triggerSent, stateAnimating).
		Permit(triggerShutdown, stateClosed).
		Ignore(triggerElapsed)

	fsm.Configure(stateAnimating).
		OnEntry(func(_ context.Context, args ...any) error {
			id, ok := args[0].(uuid.UUID)
			if !ok {
				return fmt.Errorf("animating entry expects a message id, got %T", args[0])
			}
			s.animatingID = id
			s.generation++
			generation := s.generation
			s.timer = time.AfterFunc(s.delay, func() { s.animationElapsed(generation) })
			s.outbox = append(s.outbox, AnimationStarted{ID: id})
			s.log.Debug("animation started", "id", id, "delay", s.delay)
			return nil
		}).
		OnExit(func(_ context.Context, _ ...any) error {
			if s.timer != nil {
				s.timer.Stop()
				s.timer = nil
			}
			s.generation++
			s.outbox = append(s.outbox, AnimationCleared{ID: s.animatingID})
			s.animatingID = uuid.Nil
			return nil
		}).
		PermitReentry(triggerSent).
		Permit(triggerElapsed, stateIdle).
		Permit(triggerShutdown, stateClosed)

	fsm.Configure(stateClosed).
		Ignore(triggerSent).
		Ignore(triggerElapsed).
		Ignore(triggerShutdown)

	return fsm
}

// animationElapsed runs on the timer goroutine. Callbacks from a timer that
// was cancelled or replaced carry a stale generation and do nothing.
func (s *Session) animationElapsed(generation uint64) {
	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	if err := s.fsm.Fire(triggerElapsed); err != nil {
		s.log.Warn("animation clear rejected", "error", err)
	}
	events, subs := s.flush()
	s.mu.Unlock()
	publish(events, subs)
}

func (s *Session) closed() bool {
	return s.fsm.MustState() == stateClosed
}

// SetInput replaces the text of the input bar.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = text
}

// Input returns the text of the input bar.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Send turns the input text into a message from the local user and persists
// it. Blank input yields ErrEmptyInput and changes nothing. When the store
// fails, the input is handed back for a retry, subscribers get a Failed
// event, and the message list stays as it was.
func (s *Session) Send(ctx context.Context) (conversation.Message, error) {
	s.mu.Lock()
	raw := s.input
	if strings.TrimSpace(raw) != "" && !s.closed() {
		s.input = ""
	}
	s.mu.Unlock()

	msg, err := s.SendText(ctx, raw)
	if err != nil {
		s.mu.Lock()
		if s.input == "" {
			s.input = raw
		}
		s.mu.Unlock()
	}
	return msg, err
}

// SendText sends text as the local user, trimmed the same way as Send.
// The input bar is left untouched, failure included.
func (s *Session) SendText(ctx context.Context, text string) (conversation.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return conversation.Message{}, ErrEmptyInput
	}
	s.mu.Lock()
	if s.closed() {
		s.mu.Unlock()
		return conversation.Message{}, ErrClosed
	}
	msg := conversation.New(text, s.now(), true)
	s.mu.Unlock()

	if err := s.store.Append(ctx, msg); err != nil {
		s.log.Error("failed to save message", "id", msg.ID, "error", err)
		s.mu.Lock()
		s.outbox = append(s.outbox, Failed{Op: OpSend, Err: err})
		events, subs := s.flush()
		s.mu.Unlock()
		publish(events, subs)
		return conversation.Message{}, fmt.Errorf("save message: %w", err)
	}

	s.mu.Lock()
	i := sort.Search(len(s.messages), func(i int) bool {
		return s.messages[i].Timestamp.After(msg.Timestamp)
	})
	s.messages = slices.Insert(s.messages, i, msg)
	s.outbox = append(s.outbox, MessagesChanged{Messages: slices.Clone(s.messages)})
	if err := s.fsm.Fire(triggerSent, msg.ID); err != nil {
		s.log.Warn("animation start rejected", "id", msg.ID, "error", err)
	}
	events, subs := s.flush()
	s.mu.Unlock()
	publish(events, subs)

	s.log.Info("message sent", "id", msg.ID, "length", len(msg.Text))
	return msg, nil
}

// Reload replaces the message list with the store content. On failure the
// current list is kept and subscribers get a Failed event.
func (s *Session) Reload(ctx context.Context) error {
	messages, err := s.store.List(ctx)
	if err != nil {
		s.log.Error("failed to fetch messages", "error", err)
		s.mu.Lock()
		s.outbox = append(s.outbox, Failed{Op: OpLoad, Err: err})
		events, subs := s.flush()
		s.mu.Unlock()
		publish(events, subs)
		return fmt.Errorf("load messages: %w", err)
	}

	s.mu.Lock()
	s.messages = messages
	s.outbox = append(s.outbox, MessagesChanged{Messages: slices.Clone(messages)})
	events, subs := s.flush()
	s.mu.Unlock()
	publish(events, subs)

	s.log.Debug("messages loaded", "count", len(messages))
	return nil
}

// Messages returns a copy of the ordered message list.
func (s *Session) Messages() []conversation.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Rows derives display metadata for the current message list.
func (s *Session) Rows() []conversation.Row {
	return conversation.Rows(s.Messages())
}

// AnimatingID returns the message currently animating, or uuid.Nil.
func (s *Session) AnimatingID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.animatingID
}

// Now reads the session clock.
func (s *Session) Now() time.Time {
	return s.now()
}

// Subscribe registers fn for every future event. The returned function
// removes the subscription and may be called more than once.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
		})
	}
}

// Close cancels a pending animation clear and drops every subscriber.
// Send fails with ErrClosed afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fsm.Fire(triggerShutdown); err != nil {
		s.log.Warn("session shutdown rejected", "error", err)
	}
	s.outbox = nil
	clear(s.subscribers)
}

// flush drains the outbox and snapshots the subscribers. Callers hold s.mu.
func (s *Session) flush() ([]Event, []func(Event)) {
	events := s.outbox
	s.outbox = nil
	subs := make([]func(Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return events, subs
}

func publish(events []Event, subs []func(Event)) {
	for _, evt := range events {
		for _, fn := range subs {
			fn(evt)
		}
	}
}
