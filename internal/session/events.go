package session

import (
	"github.com/google/uuid"

	"github.com/comigor/duochat/internal/conversation"
)

// Event is published to subscribers after every state change.
type Event interface {
	isEvent()
}

// MessagesChanged carries a copy of the full, ordered message list.
type MessagesChanged struct {
	Messages []conversation.Message
}

func (MessagesChanged) isEvent() {}

// AnimationStarted marks a freshly sent message as animating.
type AnimationStarted struct {
	ID uuid.UUID
}

func (AnimationStarted) isEvent() {}

// AnimationCleared is sent once the animating marker is dropped.
type AnimationCleared struct {
	ID uuid.UUID
}

func (AnimationCleared) isEvent() {}

// Operation names what a Failed event was doing.
type Operation string

const (
	OpSend Operation = "send"
	OpLoad Operation = "load"
)

// Failed reports a recoverable store failure.
type Failed struct {
	Op  Operation
	Err error
}

func (Failed) isEvent() {}
