package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comigor/duochat/internal/conversation"
	"github.com/comigor/duochat/internal/history"
	"github.com/comigor/duochat/internal/logger"
)

// mockStore mirrors history.Store.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Append(ctx context.Context, msg conversation.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockStore) AppendAll(ctx context.Context, msgs []conversation.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *mockStore) List(ctx context.Context) ([]conversation.Message, error) {
	args := m.Called(ctx)
	messages, _ := args.Get(0).([]conversation.Message)
	return messages, args.Error(1)
}

func (m *mockStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) consume(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

var fixedNow = time.Date(2025, time.November, 4, 13, 6, 0, 0, time.UTC)

func newSession(t *testing.T, store history.Store, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	s, err := New(context.Background(), store, logger.Discard(), opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSend_AddsMessageToList(t *testing.T) {
	store := history.NewMemoryStore()
	s := newSession(t, store)
	initial := len(s.Messages())

	s.SetInput("Test message")
	msg, err := s.Send(context.Background())
	require.NoError(t, err)

	messages := s.Messages()
	require.Len(t, messages, initial+1)
	last := messages[len(messages)-1]
	require.True(t, last.Equal(msg))
	require.Equal(t, "Test message", last.Text)
	require.True(t, last.SentByLocalUser)
	require.Equal(t, fixedNow, last.Timestamp)

	stored, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, msg.ID, stored[0].ID)
}

func TestSend_ClearsInputText(t *testing.T) {
	s := newSession(t, history.NewMemoryStore())
	s.SetInput("Test message")

	_, err := s.Send(context.Background())
	require.NoError(t, err)
	require.Equal(t, "", s.Input())
}

func TestSend_TrimsWhitespace(t *testing.T) {
	s := newSession(t, history.NewMemoryStore())
	s.SetInput("  Hello \n")

	msg, err := s.Send(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Hello", msg.Text)
}

// TestSend_IgnoresBlankInput verifies empty and whitespace-only input is never sent.
func TestSend_IgnoresBlankInput(t *testing.T) {
	store := &mockStore{}
	store.On("List", mock.Anything).Return([]conversation.Message(nil), nil)
	s := newSession(t, store)

	for _, input := range []string{"", "   ", "\n\t"} {
		s.SetInput(input)
		_, err := s.Send(context.Background())
		require.ErrorIs(t, err, ErrEmptyInput)
		require.Equal(t, input, s.Input())
	}
	require.Empty(t, s.Messages())
	store.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestSend_AnimatesThenClears(t *testing.T) {
	s := newSession(t, history.NewMemoryStore(), WithAnimationDelay(20*time.Millisecond))
	rec := &recorder{}
	s.Subscribe(rec.consume)

	s.SetInput("Test")
	msg, err := s.Send(context.Background())
	require.NoError(t, err)
	require.Equal(t, msg.ID, s.AnimatingID())

	require.Eventually(t, func() bool { return s.AnimatingID() == uuid.Nil }, time.Second, 5*time.Millisecond)

	events := rec.snapshot()
	require.Len(t, events, 3)
	require.IsType(t, MessagesChanged{}, events[0])
	require.Equal(t, AnimationStarted{ID: msg.ID}, events[1])
	require.Equal(t, AnimationCleared{ID: msg.ID}, events[2])
}

// TestSend_SecondSendReschedulesAnimation verifies only the latest message animates.
func TestSend_SecondSendReschedulesAnimation(t *testing.T) {
	s := newSession(t, history.NewMemoryStore(), WithAnimationDelay(50*time.Millisecond))
	rec := &recorder{}
	s.Subscribe(rec.consume)

	s.SetInput("one")
	first, err := s.Send(context.Background())
	require.NoError(t, err)
	s.SetInput("two")
	second, err := s.Send(context.Background())
	require.NoError(t, err)
	require.Equal(t, second.ID, s.AnimatingID())

	require.Eventually(t, func() bool { return s.AnimatingID() == uuid.Nil }, time.Second, 5*time.Millisecond)

	var cleared []uuid.UUID
	for _, evt := range rec.snapshot() {
		if c, ok := evt.(AnimationCleared); ok {
			cleared = append(cleared, c.ID)
		}
	}
	require.Equal(t, []uuid.UUID{first.ID, second.ID}, cleared)
}

func TestSend_StoreFailureIsRecoverable(t *testing.T) {
	boom := errors.New("disk full")
	store := &mockStore{}
	store.On("List", mock.Anything).Return([]conversation.Message(nil), nil)
	store.On("Append", mock.Anything, mock.Anything).Return(boom).Once()
	s := newSession(t, store)
	rec := &recorder{}
	s.Subscribe(rec.consume)

	s.SetInput(" retry me ")
	_, err := s.Send(context.Background())
	require.ErrorIs(t, err, boom)

	require.Empty(t, s.Messages())
	require.Equal(t, " retry me ", s.Input())
	require.Equal(t, uuid.Nil, s.AnimatingID())
	require.Equal(t, []Event{Failed{Op: OpSend, Err: boom}}, rec.snapshot())

	store.On("Append", mock.Anything, mock.Anything).Return(nil).Once()
	msg, err := s.Send(context.Background())
	require.NoError(t, err)
	require.Equal(t, "retry me", msg.Text)
	require.Len(t, s.Messages(), 1)
	store.AssertExpectations(t)
}

// TestSendText_LeavesInputAlone verifies text sent directly never goes through the input bar.
func TestSendText_LeavesInputAlone(t *testing.T) {
	store := history.NewMemoryStore()
	s := newSession(t, store)
	s.SetInput("draft")

	first, err := s.SendText(context.Background(), " first ")
	require.NoError(t, err)
	second, err := s.SendText(context.Background(), "second")
	require.NoError(t, err)
	_, err = s.SendText(context.Background(), "  ")
	require.ErrorIs(t, err, ErrEmptyInput)

	require.Equal(t, "draft", s.Input())
	require.Equal(t, "first", first.Text)
	stored, err := store.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{first.ID, second.ID}, []uuid.UUID{stored[0].ID, stored[1].ID})
}

func TestSendText_StoreFailureKeepsInput(t *testing.T) {
	boom := errors.New("disk full")
	store := &mockStore{}
	store.On("List", mock.Anything).Return([]conversation.Message(nil), nil)
	store.On("Append", mock.Anything, mock.Anything).Return(boom)
	s := newSession(t, store)
	s.SetInput("draft")

	_, err := s.SendText(context.Background(), "lost?")
	require.ErrorIs(t, err, boom)
	require.Equal(t, "draft", s.Input())
	require.Empty(t, s.Messages())
}

func TestNew_LoadsSortedFromStore(t *testing.T) {
	store := history.NewMemoryStore()
	ctx := context.Background()
	later := conversation.New("Later", fixedNow, true)
	earlier := conversation.New("Earlier", fixedNow.Add(-100*time.Second), false)
	require.NoError(t, store.Append(ctx, later))
	require.NoError(t, store.Append(ctx, earlier))

	s := newSession(t, store)

	messages := s.Messages()
	require.Equal(t, "Earlier", messages[0].Text)
	require.Equal(t, "Later", messages[1].Text)
}

func TestNew_FailsWhenStoreCannotBeRead(t *testing.T) {
	boom := errors.New("locked")
	store := &mockStore{}
	store.On("List", mock.Anything).Return(nil, boom)

	_, err := New(context.Background(), store, logger.Discard())
	require.ErrorIs(t, err, boom)
}

// TestReload_KeepsListOnFailure verifies a failed fetch is reported, not applied.
func TestReload_KeepsListOnFailure(t *testing.T) {
	boom := errors.New("io error")
	existing := []conversation.Message{conversation.New("hi", fixedNow, false)}
	store := &mockStore{}
	store.On("List", mock.Anything).Return(existing, nil).Once()
	store.On("List", mock.Anything).Return(nil, boom).Once()
	s := newSession(t, store)
	rec := &recorder{}
	s.Subscribe(rec.consume)

	err := s.Reload(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, existing, s.Messages())
	require.Equal(t, []Event{Failed{Op: OpLoad, Err: boom}}, rec.snapshot())
}

func TestReload_PicksUpExternalWrites(t *testing.T) {
	store := history.NewMemoryStore()
	s := newSession(t, store)
	rec := &recorder{}
	s.Subscribe(rec.consume)

	peer := conversation.New("From them", fixedNow, false)
	require.NoError(t, store.Append(context.Background(), peer))
	require.NoError(t, s.Reload(context.Background()))

	require.Len(t, s.Messages(), 1)
	require.Equal(t, []Event{MessagesChanged{Messages: []conversation.Message{peer}}}, rec.snapshot())
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	s := newSession(t, history.NewMemoryStore(), WithAnimationDelay(time.Hour))
	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.consume)

	s.SetInput("first")
	_, err := s.Send(context.Background())
	require.NoError(t, err)
	require.Len(t, rec.snapshot(), 2)

	unsubscribe()
	unsubscribe()
	s.SetInput("second")
	_, err = s.Send(context.Background())
	require.NoError(t, err)
	require.Len(t, rec.snapshot(), 2)
}

// TestClose_CancelsPendingAnimation verifies teardown leaves no live timer behind.
func TestClose_CancelsPendingAnimation(t *testing.T) {
	s := newSession(t, history.NewMemoryStore(), WithAnimationDelay(20*time.Millisecond))
	rec := &recorder{}
	s.Subscribe(rec.consume)

	s.SetInput("bye")
	_, err := s.Send(context.Background())
	require.NoError(t, err)
	s.Close()

	s.mu.Lock()
	require.Nil(t, s.timer)
	s.mu.Unlock()
	require.Equal(t, uuid.Nil, s.AnimatingID())

	time.Sleep(60 * time.Millisecond)
	require.Len(t, rec.snapshot(), 2, "no event after close")

	s.SetInput("again")
	_, err = s.Send(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}

// TestRows_GroupsQuickSends verifies the session feeds its list through the formatter.
func TestRows_GroupsQuickSends(t *testing.T) {
	clock := fixedNow
	s := newSession(t, history.NewMemoryStore(), WithClock(func() time.Time { return clock }))

	s.SetInput("Hey")
	_, err := s.Send(context.Background())
	require.NoError(t, err)
	clock = clock.Add(20 * time.Second)
	s.SetInput("you there?")
	_, err = s.Send(context.Background())
	require.NoError(t, err)

	rows := s.Rows()
	require.Len(t, rows, 2)
	require.True(t, rows[0].ShowHeader)
	require.False(t, rows[1].ShowHeader)
	require.True(t, rows[1].Grouped)
}
