package store

import (
	"errors"
	"time"

	"github.com/go-go-golems/arbor/pkg/tree"
)

var (
	// ErrTurnInFlight indicates the node already has an outstanding turn.
	ErrTurnInFlight = errors.New("turn already in flight")
	// ErrNoActiveSession indicates an operation that needs an active
	// session found none.
	ErrNoActiveSession = errors.New("no active session")
	// ErrNoCompleter indicates the store was built without a completion
	// collaborator.
	ErrNoCompleter = errors.New("no completer configured")
)

// TurnKind distinguishes a linear submission on an existing node from the
// first prompt of a freshly created branch.
type TurnKind string

const (
	TurnKindLinear TurnKind = "linear"
	TurnKindBranch TurnKind = "branch"
)

// PendingTurn tracks one in-flight or failed assistant turn for a node.
// It is ephemeral state: never persisted, rebuilt empty on load. A node
// moves Idle -> Pending -> (Idle | Errored); Errored -> Pending again on
// retry.
type PendingTurn struct {
	NodeID         tree.NodeID
	SubmittedInput string
	StartedAt      time.Time
	Kind           TurnKind

	// Err holds the failure verbatim once the assistant call fails. It is
	// never cleared automatically: the caller retries or dismisses.
	Err string
}

// Failed reports whether the turn ended in an error.
func (p *PendingTurn) Failed() bool { return p.Err != "" }

// pendingTracker enforces at most one outstanding turn per node.
type pendingTracker struct {
	turns map[tree.NodeID]*PendingTurn
}

func newPendingTracker() *pendingTracker {
	return &pendingTracker{turns: map[tree.NodeID]*PendingTurn{}}
}

// begin registers a fresh pending turn. An in-flight turn blocks the
// registration; a failed one is superseded by the fresh submission.
func (t *pendingTracker) begin(nodeID tree.NodeID, input string, kind TurnKind) (*PendingTurn, error) {
	if existing, ok := t.turns[nodeID]; ok && !existing.Failed() {
		return nil, ErrTurnInFlight
	}
	pt := &PendingTurn{
		NodeID:         nodeID,
		SubmittedInput: input,
		StartedAt:      time.Now(),
		Kind:           kind,
	}
	t.turns[nodeID] = pt
	return pt, nil
}

func (t *pendingTracker) finish(nodeID tree.NodeID) {
	delete(t.turns, nodeID)
}

func (t *pendingTracker) fail(nodeID tree.NodeID, err error) {
	if pt, ok := t.turns[nodeID]; ok {
		pt.Err = err.Error()
	}
}

func (t *pendingTracker) get(nodeID tree.NodeID) (PendingTurn, bool) {
	pt, ok := t.turns[nodeID]
	if !ok {
		return PendingTurn{}, false
	}
	return *pt, true
}

func (t *pendingTracker) clearSession(session *tree.Session) {
	for nodeID := range session.Nodes {
		delete(t.turns, nodeID)
	}
}

func (t *pendingTracker) clearAll() {
	t.turns = map[tree.NodeID]*PendingTurn{}
}
