package tree

// ReconcileHighlights recomputes every highlight's IsActive flag against
// the given active path: a highlight is active iff its owning message
// belongs to a node on the path and its child node is the next node on the
// path. All other highlights become inactive.
//
// The returned bool reports whether anything changed. When the flags
// already match, the session is untouched and false is returned; callers
// rely on this to suppress spurious downstream updates, so flags are only
// written when they differ.
func ReconcileHighlights(s *Session, path []NodeID) bool {
	parentToChild := make(map[NodeID]NodeID, len(path))
	for i := 0; i+1 < len(path); i++ {
		parentToChild[path[i]] = path[i+1]
	}

	changed := false
	for _, id := range s.NodeOrder {
		node, ok := s.Nodes[id]
		if !ok {
			continue
		}
		next := parentToChild[node.ID]
		for _, msg := range node.Messages {
			for _, hl := range msg.Highlights {
				active := next != "" && hl.ChildNodeID == next
				if hl.IsActive != active {
					hl.IsActive = active
					changed = true
				}
			}
		}
	}
	return changed
}
