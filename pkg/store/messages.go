package store

import (
	"strings"

	"github.com/go-go-golems/arbor/pkg/events"
	"github.com/go-go-golems/arbor/pkg/tree"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SendUserMessage appends a user message to a node of the active session
// and returns its id so the caller can request a completion. Empty input
// and unknown nodes are rejected without mutating anything.
func (s *Store) SendUserMessage(nodeID tree.NodeID, text string) (tree.MessageID, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", &tree.ValidationError{Field: "text", Reason: "empty input"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.activeSessionLocked()
	if session == nil {
		return "", ErrNoActiveSession
	}
	node, ok := session.Node(nodeID)
	if !ok {
		return "", errors.Wrapf(tree.ErrNotFound, "node %s", nodeID)
	}

	message := tree.NewMessage(tree.RoleUser, trimmed)
	node.AppendMessage(message)
	session.Touch()
	s.persistLocked()

	return message.ID, nil
}

// StartBranchFromSelection creates a child node anchored to a selection of
// a parent message, seeds it with the prompt as its first user message,
// and extends the active path through the new node: when the parent is
// already on the active path, the path is truncated after it and the child
// appended; otherwise the path is recomputed from the root.
func (s *Store) StartBranchFromSelection(input BranchInput) (*BranchResult, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, &tree.ValidationError{Field: "prompt", Reason: "empty input"}
	}

	s.mu.Lock()
	session := s.activeSessionLocked()
	if session == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveSession
	}

	child, promptMessage, err := session.NewBranch(input.ParentNodeID, input.ParentMessageID, input.Selection, input.Prompt)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	parentIndex := -1
	for i, id := range s.activePath {
		if id == input.ParentNodeID {
			parentIndex = i
			break
		}
	}
	if parentIndex >= 0 {
		s.activePath = append(append([]tree.NodeID(nil), s.activePath[:parentIndex+1]...), child.ID)
	} else {
		path, err := session.PathToNode(child.ID)
		if err != nil {
			// the branch was just inserted with a valid parent link
			log.Error().Err(err).Str("node_id", string(child.ID)).Msg("walking freshly created branch failed")
			path = []tree.NodeID{session.RootNodeID}
		}
		s.activePath = path
	}
	tree.ReconcileHighlights(session, s.activePath)
	s.currentNodeID = child.ID
	session.LastFocusedNodeID = child.ID
	s.persistLocked()
	sessionID := session.ID
	s.mu.Unlock()

	s.publish(events.New(events.EventTypeBranchCreated).
		WithSession(sessionID).
		WithNode(child.ID).
		WithMessage(promptMessage.ID))

	return &BranchResult{NodeID: child.ID, MessageID: promptMessage.ID}, nil
}

// AppendAssistantReply commits an assistant message to a node. When the
// node has no header yet and one was suggested, it is adopted; a root
// node's adopted header also becomes the session title, since a session is
// named after its root branch. A node that no longer exists (its session
// was deleted while the request was in flight) is a silent no-op.
func (s *Store) AppendAssistantReply(nodeID tree.NodeID, text string, suggestedHeader string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendAssistantReplyLocked(nodeID, text, suggestedHeader)
}

func (s *Store) appendAssistantReplyLocked(nodeID tree.NodeID, text string, suggestedHeader string) {
	session, node := s.findNodeLocked(nodeID)
	if node == nil {
		log.Debug().Str("node_id", string(nodeID)).Msg("dropping assistant reply for vanished node")
		return
	}

	node.AppendMessage(tree.NewMessage(tree.RoleAssistant, text))
	if node.Header == "" && suggestedHeader != "" {
		node.Header = suggestedHeader
		if node.IsRoot() {
			session.Title = suggestedHeader
		}
	}
	session.Touch()
	s.persistLocked()
}
