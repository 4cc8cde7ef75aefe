package store

import (
	"context"
	"strings"

	"github.com/go-go-golems/arbor/pkg/events"
	"github.com/go-go-golems/arbor/pkg/tree"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// RequestTurn is the single entry point tying a submission to its
// completion. The user's message is already committed when this is called
// (SendUserMessage for linear turns, StartBranchFromSelection for branch
// turns); it is only omitted from the history, since the prompt travels to
// the collaborator separately.
//
// The call is rejected before any mutation when the input is empty or the
// node already has a turn in flight. A previously failed turn does not
// block: the fresh submission supersedes it.
//
// RequestTurn blocks until the collaborator resolves and is safe to call
// from a goroutine. On failure the pending turn stays behind carrying the
// error until the caller retries or dismisses it; the user's message is
// never rolled back.
func (s *Store) RequestTurn(ctx context.Context, nodeID tree.NodeID, text string, kind TurnKind) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &tree.ValidationError{Field: "text", Reason: "empty input"}
	}
	if kind != TurnKindLinear && kind != TurnKindBranch {
		return &tree.ValidationError{Field: "kind", Reason: "unknown turn kind " + string(kind)}
	}
	if s.completer == nil {
		return ErrNoCompleter
	}

	s.mu.Lock()
	session, node := s.findNodeLocked(nodeID)
	if node == nil {
		s.mu.Unlock()
		return errors.Wrapf(tree.ErrNotFound, "node %s", nodeID)
	}
	if existing, ok := s.pending.get(nodeID); ok && !existing.Failed() {
		s.mu.Unlock()
		return ErrTurnInFlight
	}

	// the just-submitted prompt is the node's trailing user message
	var omit tree.MessageID
	if last := node.LastMessage(); last != nil && last.Role == tree.RoleUser {
		omit = last.ID
	}

	path, err := session.PathToNode(nodeID)
	if err != nil {
		s.mu.Unlock()
		log.Error().Err(err).Str("node_id", string(nodeID)).Msg("request turn cannot walk to node")
		return err
	}
	history := session.LinearHistory(path, omit)

	if _, err := s.pending.begin(nodeID, trimmed, kind); err != nil {
		s.mu.Unlock()
		return err
	}
	sessionID := session.ID
	s.mu.Unlock()

	s.publish(events.New(events.EventTypeTurnStarted).WithSession(sessionID).WithNode(nodeID))
	log.Debug().
		Str("node_id", string(nodeID)).
		Str("kind", string(kind)).
		Int("history_length", len(history)).
		Msg("turn started")

	reply, err := s.completer.Complete(ctx, history, trimmed)

	if err != nil {
		s.mu.Lock()
		s.pending.fail(nodeID, err)
		s.mu.Unlock()

		s.publish(events.New(events.EventTypeTurnFailed).WithSession(sessionID).WithNode(nodeID).WithError(err))
		log.Warn().Err(err).Str("node_id", string(nodeID)).Msg("turn failed")
		return errors.Wrap(err, "completion")
	}

	s.mu.Lock()
	s.appendAssistantReplyLocked(nodeID, reply.Message, reply.SuggestedHeader)
	s.pending.finish(nodeID)
	s.mu.Unlock()

	s.publish(events.New(events.EventTypeTurnCompleted).WithSession(sessionID).WithNode(nodeID))
	return nil
}

// DismissTurnError drops a failed pending turn, returning the node to
// idle without retrying.
func (s *Store) DismissTurnError(nodeID tree.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pt, ok := s.pending.get(nodeID); ok && pt.Failed() {
		s.pending.finish(nodeID)
	}
}

// PendingFor returns a copy of the node's pending turn, if any.
func (s *Store) PendingFor(nodeID tree.NodeID) (PendingTurn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.get(nodeID)
}
