package tree

// Package tree implements the branching conversation tree: sessions own a
// flat arena of nodes linked by parent references, and the functions here
// derive everything else from that structure. That covers the path from
// the root to any node, the deterministic left-to-right ordering of
// sibling branches, the depth-grouped columns a display layer renders,
// and the linear history an assistant call sees.

import (
	"sort"

	"github.com/pkg/errors"
)

// PathToNode returns the ordered node ids from the root to id inclusive,
// by walking parent links upward. The walk is bounded by the total node
// count so a malformed snapshot with a parent cycle fails with
// ErrCorruptTree instead of looping.
func (s *Session) PathToNode(id NodeID) ([]NodeID, error) {
	cur, ok := s.Nodes[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "node %s", id)
	}

	path := []NodeID{}
	steps := 0
	for {
		path = append(path, cur.ID)
		if cur.Parent == nil {
			break
		}
		steps++
		if steps > len(s.Nodes) {
			return nil, &CorruptTreeError{NodeID: id, Reason: "parent chain exceeds node count"}
		}
		next, ok := s.Nodes[cur.Parent.ParentNodeID]
		if !ok {
			return nil, &CorruptTreeError{NodeID: cur.ID, Reason: "dangling parent reference " + string(cur.Parent.ParentNodeID)}
		}
		cur = next
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// SiblingsAtDepth returns every node at the given depth, ordered ascending
// by anchor order. Ties are broken by node creation order, which NodeOrder
// preserves and the stable sort respects.
func (s *Session) SiblingsAtDepth(depth int) []*Node {
	var out []*Node
	for _, id := range s.NodeOrder {
		if n, ok := s.Nodes[id]; ok && n.Depth == depth {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AnchorOrder < out[j].AnchorOrder
	})
	return out
}

// Column groups the sibling nodes at one depth of the tree.
type Column struct {
	Depth int     `json:"depth"`
	Nodes []*Node `json:"nodes"`
}

// Columns returns the tree as depth-ordered columns, siblings within each
// column in anchor order. This is the read surface a display layer renders
// left to right.
func (s *Session) Columns() []Column {
	maxDepth := -1
	for _, n := range s.Nodes {
		if n.Depth > maxDepth {
			maxDepth = n.Depth
		}
	}

	out := make([]Column, 0, maxDepth+1)
	for depth := 0; depth <= maxDepth; depth++ {
		nodes := s.SiblingsAtDepth(depth)
		if len(nodes) == 0 {
			continue
		}
		out = append(out, Column{Depth: depth, Nodes: nodes})
	}
	return out
}
