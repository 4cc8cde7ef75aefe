package tree

import "fmt"

// HistoryMessage is one entry of the flattened history handed to the
// assistant collaborator.
type HistoryMessage struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// BranchMarker renders the synthetic user turn injected when the history
// crosses into a branch, so the assistant sees why the topic changed.
func BranchMarker(sel Selection) string {
	return fmt.Sprintf(`[Branch created from previous text: "%s"]`, sel.Text)
}

// LinearHistory flattens every message of every node along path, in path
// order then per-node chronological order. When a node other than the
// first was entered via a branch, a branch marker is injected before its
// messages. If omit is non-empty, that single message is skipped, which
// excludes a just-submitted prompt that is passed to the assistant
// separately. Nodes missing from the arena are skipped. The function never
// mutates state.
func (s *Session) LinearHistory(path []NodeID, omit MessageID) []HistoryMessage {
	history := []HistoryMessage{}
	for idx, id := range path {
		node, ok := s.Nodes[id]
		if !ok {
			continue
		}
		if idx > 0 && node.Parent != nil {
			history = append(history, HistoryMessage{
				Role: RoleUser,
				Text: BranchMarker(node.Parent.Selection),
			})
		}
		for _, m := range node.Messages {
			if omit != "" && m.ID == omit {
				continue
			}
			history = append(history, HistoryMessage{Role: m.Role, Text: m.Text})
		}
	}
	return history
}
