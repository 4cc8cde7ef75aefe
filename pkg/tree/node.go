package tree

import (
	"time"

	"github.com/go-go-golems/arbor/pkg/ids"
)

type NodeID string

func NewNodeID() NodeID { return NodeID(ids.New("node")) }

// NodeParent records where a node branched off: the parent node, the
// message within it, and the selection that anchored the branch. Nil only
// for the root node.
type NodeParent struct {
	ParentNodeID    NodeID    `json:"parentNodeId"`
	ParentMessageID MessageID `json:"parentMessageId"`
	Selection       Selection `json:"selection"`
}

// Node is one branch column of the conversation tree: a linear sequence of
// messages sharing a single branch point.
type Node struct {
	ID       NodeID      `json:"id"`
	Depth    int         `json:"depth"`
	Header   string      `json:"header,omitempty"`
	Parent   *NodeParent `json:"parent,omitempty"`
	Messages []*Message  `json:"messages"`

	// AnchorOrder sorts siblings at the same depth. It is derived once at
	// creation time from the branch point and never recomputed.
	AnchorOrder int64     `json:"anchorOrder"`
	CreatedAt   time.Time `json:"createdAt"`
}

// anchorStride scales the parent-message index so that branches from
// earlier messages always sort before branches from later ones, with the
// selection start offset ordering branches within one message.
const anchorStride = 1000

// DeriveAnchorOrder computes the sibling sort key for a branch anchored to
// the given message and selection of the parent node.
func DeriveAnchorOrder(parent *Node, parentMessageID MessageID, sel Selection) (int64, error) {
	idx := parent.messageIndex(parentMessageID)
	if idx < 0 {
		return 0, &ValidationError{Field: "parentMessageId", Reason: "message not found in parent node"}
	}
	return int64(idx)*anchorStride + int64(sel.StartOffset), nil
}

// NewRootNode returns an empty depth-0 node with no parent. Sessions get
// one at creation; the repair pass uses it to replace a missing root.
func NewRootNode() *Node {
	return &Node{
		ID:        NewNodeID(),
		Depth:     0,
		Messages:  []*Message{},
		CreatedAt: time.Now(),
	}
}

func (n *Node) messageIndex(id MessageID) int {
	for i, m := range n.Messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// MessageByID returns the message with the given id, if present.
func (n *Node) MessageByID(id MessageID) (*Message, bool) {
	idx := n.messageIndex(id)
	if idx < 0 {
		return nil, false
	}
	return n.Messages[idx], true
}

// AppendMessage adds a message at the end of the node's chronological
// sequence.
func (n *Node) AppendMessage(msg *Message) {
	n.Messages = append(n.Messages, msg)
}

// LastMessage returns the most recent message, or nil for an empty node.
func (n *Node) LastMessage() *Message {
	if len(n.Messages) == 0 {
		return nil
	}
	return n.Messages[len(n.Messages)-1]
}

// IsRoot reports whether the node is the root of its session tree.
func (n *Node) IsRoot() bool { return n.Parent == nil }
