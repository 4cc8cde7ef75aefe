package tree

import (
	"time"

	"github.com/go-go-golems/arbor/pkg/ids"
	"github.com/rs/zerolog/log"
)

type SessionID string

func NewSessionID() SessionID { return SessionID(ids.New("session")) }

// Session is one branching conversation tree. Nodes reference each other
// only by id through the flat Nodes map; NodeOrder records insertion order
// since Go maps are unordered, and doubles as the deterministic iteration
// order for sibling tie-breaking and reconciliation.
type Session struct {
	ID                SessionID        `json:"id"`
	Title             string           `json:"title,omitempty"`
	RootNodeID        NodeID           `json:"rootNodeId"`
	Nodes             map[NodeID]*Node `json:"nodes"`
	NodeOrder         []NodeID         `json:"nodeOrder"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
	LastFocusedNodeID NodeID           `json:"lastFocusedNodeId,omitempty"`
}

// NewSession creates a session with a fresh, empty root node.
func NewSession() *Session {
	root := NewRootNode()
	now := time.Now()
	s := &Session{
		ID:                NewSessionID(),
		RootNodeID:        root.ID,
		Nodes:             map[NodeID]*Node{root.ID: root},
		NodeOrder:         []NodeID{root.ID},
		CreatedAt:         now,
		UpdatedAt:         now,
		LastFocusedNodeID: root.ID,
	}
	log.Debug().Str("session_id", string(s.ID)).Str("root_node_id", string(root.ID)).Msg("created session")
	return s
}

// Root returns the root node. It panics only on a session that bypassed
// repair, since the root's existence is a session invariant.
func (s *Session) Root() *Node {
	return s.Nodes[s.RootNodeID]
}

// Node returns the node with the given id, if present.
func (s *Session) Node(id NodeID) (*Node, bool) {
	n, ok := s.Nodes[id]
	return n, ok
}

// InsertNode registers a node in the arena and records its creation order.
func (s *Session) InsertNode(n *Node) {
	s.Nodes[n.ID] = n
	s.NodeOrder = append(s.NodeOrder, n.ID)
}

// Touch bumps the session's updated timestamp.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now()
}

// NewBranch creates a child node anchored to a selection of a parent
// message, with a single initial user message carrying the prompt. A
// highlight linking the selection to the child is appended to the parent
// message; its IsActive flag is left for the reconciler to set. Overlap
// with existing highlights on the same message is permitted.
func (s *Session) NewBranch(parentNodeID NodeID, parentMessageID MessageID, sel Selection, prompt string) (*Node, *Message, error) {
	parent, ok := s.Nodes[parentNodeID]
	if !ok {
		return nil, nil, &ValidationError{Field: "parentNodeId", Reason: "node " + string(parentNodeID) + " not found"}
	}
	parentMessage, ok := parent.MessageByID(parentMessageID)
	if !ok {
		return nil, nil, &ValidationError{Field: "parentMessageId", Reason: "message " + string(parentMessageID) + " not found"}
	}
	if err := sel.Validate(parentMessage.Text); err != nil {
		return nil, nil, err
	}

	anchorOrder, err := DeriveAnchorOrder(parent, parentMessageID, sel)
	if err != nil {
		return nil, nil, err
	}

	promptMessage := NewMessage(RoleUser, prompt)
	child := &Node{
		ID:     NewNodeID(),
		Depth:  parent.Depth + 1,
		Parent: &NodeParent{
			ParentNodeID:    parent.ID,
			ParentMessageID: parentMessageID,
			Selection:       sel,
		},
		Messages:    []*Message{promptMessage},
		AnchorOrder: anchorOrder,
		CreatedAt:   time.Now(),
	}

	parentMessage.Highlights = append(parentMessage.Highlights, &Highlight{
		ID:          NewHighlightID(),
		StartOffset: sel.StartOffset,
		EndOffset:   sel.EndOffset,
		Text:        sel.Text,
		ChildNodeID: child.ID,
	})
	s.InsertNode(child)
	s.Touch()

	log.Debug().
		Str("session_id", string(s.ID)).
		Str("parent_node_id", string(parent.ID)).
		Str("child_node_id", string(child.ID)).
		Int("depth", child.Depth).
		Int64("anchor_order", anchorOrder).
		Msg("created branch")

	return child, promptMessage, nil
}
