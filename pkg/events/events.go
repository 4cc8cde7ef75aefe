package events

import (
	"time"

	"github.com/go-go-golems/arbor/pkg/tree"
)

// EventType identifies a store lifecycle event.
type EventType string

const (
	EventTypeSessionCreated EventType = "session-created"
	EventTypeSessionDeleted EventType = "session-deleted"
	EventTypeBranchCreated  EventType = "branch-created"
	EventTypePathSwitched   EventType = "path-switched"
	EventTypeTurnStarted    EventType = "turn-started"
	EventTypeTurnCompleted  EventType = "turn-completed"
	EventTypeTurnFailed     EventType = "turn-failed"
)

// Event is published by the store after a mutation commits, so display
// layers can re-render without polling. Fields other than Type and At are
// populated when they apply to the event.
type Event struct {
	Type      EventType      `json:"type"`
	SessionID tree.SessionID `json:"sessionId,omitempty"`
	NodeID    tree.NodeID    `json:"nodeId,omitempty"`
	MessageID tree.MessageID `json:"messageId,omitempty"`
	Error     string         `json:"error,omitempty"`
	At        time.Time      `json:"at"`
}

func New(eventType EventType) Event {
	return Event{Type: eventType, At: time.Now()}
}

func (e Event) WithSession(id tree.SessionID) Event {
	e.SessionID = id
	return e
}

func (e Event) WithNode(id tree.NodeID) Event {
	e.NodeID = id
	return e
}

func (e Event) WithMessage(id tree.MessageID) Event {
	e.MessageID = id
	return e
}

func (e Event) WithError(err error) Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}
