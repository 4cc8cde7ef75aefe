package store

// Package store owns the branching conversation state: the map of
// sessions, the UI focus (active session, active path, current node), and
// the per-node pending-turn tracker. Every mutation runs as one atomic
// step under the store lock, delegates the tree work to pkg/tree, then
// schedules a debounced persistence write and publishes a lifecycle
// event. The only suspension point is the assistant completion inside
// RequestTurn.

import (
	"context"

	"github.com/go-go-golems/arbor/pkg/tree"
)

// BranchInput names the arguments of StartBranchFromSelection.
type BranchInput struct {
	ParentNodeID    tree.NodeID
	ParentMessageID tree.MessageID
	Selection       tree.Selection
	Prompt          string
}

// BranchResult identifies the node and prompt message a branch creation
// produced, so the caller can request a completion for it.
type BranchResult struct {
	NodeID    tree.NodeID
	MessageID tree.MessageID
}

// Manager is the interface handlers should depend on instead of the
// concrete Store.
type Manager interface {
	EnsureSession() tree.SessionID
	CreateSession() tree.SessionID
	SetActiveSession(id tree.SessionID)
	DeleteSession(id tree.SessionID)
	FocusNode(id tree.NodeID)
	SwitchBranchToNode(id tree.NodeID)

	SendUserMessage(nodeID tree.NodeID, text string) (tree.MessageID, error)
	StartBranchFromSelection(input BranchInput) (*BranchResult, error)
	AppendAssistantReply(nodeID tree.NodeID, text string, suggestedHeader string)
	RequestTurn(ctx context.Context, nodeID tree.NodeID, text string, kind TurnKind) error
	DismissTurnError(nodeID tree.NodeID)
	PendingFor(nodeID tree.NodeID) (PendingTurn, bool)

	View() *View
	Sessions() []SessionInfo
	Close() error
}
