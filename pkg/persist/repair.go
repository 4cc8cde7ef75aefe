package persist

import (
	"sort"

	"github.com/go-go-golems/arbor/pkg/tree"
	"github.com/rs/zerolog/log"
)

// Repair normalizes a loaded snapshot in place and returns it. It creates
// a session when none exist, reassigns a stale active session id, rebuilds
// the UI focus substructure when it is missing or inconsistent, and fixes
// per-session structure (missing root, unreachable nodes, parent cycles,
// dangling highlight links). Repair is idempotent: running it twice yields
// the same result as running it once.
func Repair(snap *Snapshot) *Snapshot {
	if snap == nil {
		snap = NewSnapshot()
	}
	snap.Version = Version
	if snap.Sessions == nil {
		snap.Sessions = map[tree.SessionID]*tree.Session{}
	}

	for id, session := range snap.Sessions {
		if session == nil {
			delete(snap.Sessions, id)
			continue
		}
		session.ID = id
		repairSession(session)
	}

	snap.SessionOrder = repairSessionOrder(snap.Sessions, snap.SessionOrder)

	if len(snap.Sessions) == 0 {
		session := tree.NewSession()
		snap.Sessions[session.ID] = session
		snap.SessionOrder = []tree.SessionID{session.ID}
		snap.ActiveSessionID = session.ID
		log.Debug().Str("session_id", string(session.ID)).Msg("repair created replacement session")
	}

	if _, ok := snap.Sessions[snap.ActiveSessionID]; !ok {
		snap.ActiveSessionID = snap.SessionOrder[0]
		log.Debug().Str("session_id", string(snap.ActiveSessionID)).Msg("repair reassigned active session")
	}

	active := snap.Sessions[snap.ActiveSessionID]
	if !validFocus(active, snap.ActivePath, snap.CurrentNodeID) {
		target := active.LastFocusedNodeID
		if _, ok := active.Node(target); !ok {
			target = active.RootNodeID
		}
		path, err := active.PathToNode(target)
		if err != nil {
			// repairSession guarantees the root path is walkable
			target = active.RootNodeID
			path = []tree.NodeID{target}
		}
		snap.ActivePath = path
		snap.CurrentNodeID = target
		active.LastFocusedNodeID = target
		log.Debug().Str("node_id", string(target)).Msg("repair rebuilt focus")
	}

	tree.ReconcileHighlights(active, snap.ActivePath)

	return snap
}

// validFocus reports whether the persisted focus substructure still
// describes a root-to-node chain inside the session that contains the
// current node. A valid longer path is kept as-is: focusNode moves the
// current position within a path without truncating it.
func validFocus(session *tree.Session, path []tree.NodeID, current tree.NodeID) bool {
	if len(path) == 0 || path[0] != session.RootNodeID {
		return false
	}
	for i, id := range path {
		node, ok := session.Node(id)
		if !ok {
			return false
		}
		if i == 0 {
			continue
		}
		if node.Parent == nil || node.Parent.ParentNodeID != path[i-1] {
			return false
		}
	}
	for _, id := range path {
		if id == current {
			return true
		}
	}
	return false
}

func repairSession(session *tree.Session) {
	if session.Nodes == nil {
		session.Nodes = map[tree.NodeID]*tree.Node{}
	}
	for id, node := range session.Nodes {
		if node == nil {
			delete(session.Nodes, id)
			continue
		}
		node.ID = id
	}

	root, ok := session.Nodes[session.RootNodeID]
	if !ok {
		root = tree.NewRootNode()
		session.RootNodeID = root.ID
		session.Nodes[root.ID] = root
		log.Warn().Str("session_id", string(session.ID)).Msg("repair recreated missing root node")
	}
	root.Parent = nil
	root.Depth = 0

	// Keep only nodes whose parent chain terminates at the root, and
	// recompute depth from the chain length so it matches the structure.
	depths := map[tree.NodeID]int{root.ID: 0}
	for id, node := range session.Nodes {
		depth, reachable := chainDepth(session, node)
		if !reachable {
			delete(session.Nodes, id)
			log.Warn().
				Str("session_id", string(session.ID)).
				Str("node_id", string(id)).
				Msg("repair dropped unreachable node")
			continue
		}
		depths[id] = depth
	}
	for id, node := range session.Nodes {
		node.Depth = depths[id]
	}

	dropDanglingHighlights(session)
	session.NodeOrder = repairNodeOrder(session)

	if _, ok := session.Nodes[session.LastFocusedNodeID]; !ok {
		session.LastFocusedNodeID = session.RootNodeID
	}
}

// chainDepth walks parent links to the root, bounded by the node count.
func chainDepth(session *tree.Session, node *tree.Node) (int, bool) {
	depth := 0
	cur := node
	for cur.Parent != nil {
		depth++
		if depth > len(session.Nodes) {
			return 0, false
		}
		next, ok := session.Nodes[cur.Parent.ParentNodeID]
		if !ok {
			return 0, false
		}
		cur = next
	}
	if cur.ID != session.RootNodeID {
		return 0, false
	}
	return depth, true
}

func dropDanglingHighlights(session *tree.Session) {
	for _, node := range session.Nodes {
		for _, msg := range node.Messages {
			if len(msg.Highlights) == 0 {
				continue
			}
			kept := msg.Highlights[:0]
			for _, hl := range msg.Highlights {
				if _, ok := session.Nodes[hl.ChildNodeID]; ok {
					kept = append(kept, hl)
				}
			}
			msg.Highlights = kept
		}
	}
}

// repairNodeOrder keeps the surviving prefix of the recorded creation
// order and appends nodes it never saw in a deterministic order, so two
// repair runs agree.
func repairNodeOrder(session *tree.Session) []tree.NodeID {
	seen := map[tree.NodeID]bool{}
	order := make([]tree.NodeID, 0, len(session.Nodes))
	for _, id := range session.NodeOrder {
		if _, ok := session.Nodes[id]; ok && !seen[id] {
			order = append(order, id)
			seen[id] = true
		}
	}

	var missing []*tree.Node
	for id, node := range session.Nodes {
		if !seen[id] {
			missing = append(missing, node)
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		if !missing[i].CreatedAt.Equal(missing[j].CreatedAt) {
			return missing[i].CreatedAt.Before(missing[j].CreatedAt)
		}
		return missing[i].ID < missing[j].ID
	})
	for _, node := range missing {
		order = append(order, node.ID)
	}
	return order
}

func repairSessionOrder(sessions map[tree.SessionID]*tree.Session, order []tree.SessionID) []tree.SessionID {
	seen := map[tree.SessionID]bool{}
	out := make([]tree.SessionID, 0, len(sessions))
	for _, id := range order {
		if _, ok := sessions[id]; ok && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}

	var missing []*tree.Session
	for id, session := range sessions {
		if !seen[id] {
			missing = append(missing, session)
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		if !missing[i].CreatedAt.Equal(missing[j].CreatedAt) {
			return missing[i].CreatedAt.Before(missing[j].CreatedAt)
		}
		return missing[i].ID < missing[j].ID
	})
	for _, session := range missing {
		out = append(out, session.ID)
	}
	return out
}
