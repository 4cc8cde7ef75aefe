package persist

import (
	"testing"

	"github.com/go-go-golems/arbor/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededSnapshot(t *testing.T) (*Snapshot, *tree.Session, *tree.Node) {
	t.Helper()
	session := tree.NewSession()
	root := session.Root()
	root.AppendMessage(tree.NewMessage(tree.RoleUser, "what are trees?"))
	root.AppendMessage(tree.NewMessage(tree.RoleAssistant, "Trees are perennial plants."))

	child, _, err := session.NewBranch(session.RootNodeID, root.Messages[1].ID,
		tree.Selection{Text: "perennial", StartOffset: 10, EndOffset: 19}, "define perennial")
	require.NoError(t, err)

	snap := NewSnapshot()
	snap.Sessions[session.ID] = session
	snap.SessionOrder = []tree.SessionID{session.ID}
	snap.ActiveSessionID = session.ID
	snap.ActivePath = []tree.NodeID{session.RootNodeID, child.ID}
	snap.CurrentNodeID = child.ID
	session.LastFocusedNodeID = child.ID
	return snap, session, child
}

func TestRepairNilSnapshot(t *testing.T) {
	snap := Repair(nil)

	require.Len(t, snap.Sessions, 1)
	require.Len(t, snap.SessionOrder, 1)
	session := snap.Sessions[snap.ActiveSessionID]
	require.NotNil(t, session)
	assert.Equal(t, []tree.NodeID{session.RootNodeID}, snap.ActivePath)
	assert.Equal(t, session.RootNodeID, snap.CurrentNodeID)
}

func TestRepairKeepsHealthySnapshot(t *testing.T) {
	snap, session, child := seededSnapshot(t)

	repaired := Repair(snap)

	assert.Equal(t, session.ID, repaired.ActiveSessionID)
	assert.Equal(t, []tree.NodeID{session.RootNodeID, child.ID}, repaired.ActivePath)
	assert.Equal(t, child.ID, repaired.CurrentNodeID)
	assert.Len(t, session.Nodes, 2)
}

func TestRepairKeepsCurrentMidPath(t *testing.T) {
	// focusing the root of a longer path must survive repair untruncated
	snap, session, child := seededSnapshot(t)
	snap.CurrentNodeID = session.RootNodeID
	session.LastFocusedNodeID = session.RootNodeID

	repaired := Repair(snap)

	assert.Equal(t, []tree.NodeID{session.RootNodeID, child.ID}, repaired.ActivePath)
	assert.Equal(t, session.RootNodeID, repaired.CurrentNodeID)
}

func TestRepairRebuildsBrokenFocus(t *testing.T) {
	snap, session, child := seededSnapshot(t)
	snap.ActivePath = []tree.NodeID{child.ID, session.RootNodeID}

	repaired := Repair(snap)

	assert.Equal(t, []tree.NodeID{session.RootNodeID, child.ID}, repaired.ActivePath)
	assert.Equal(t, child.ID, repaired.CurrentNodeID)
}

func TestRepairRecreatesMissingRoot(t *testing.T) {
	snap, session, _ := seededSnapshot(t)
	delete(session.Nodes, session.RootNodeID)

	repaired := Repair(snap)

	active := repaired.Sessions[repaired.ActiveSessionID]
	root, ok := active.Node(active.RootNodeID)
	require.True(t, ok)
	assert.Equal(t, 0, root.Depth)
	assert.Nil(t, root.Parent)
	// the old child pointed at the vanished root and is unreachable now
	assert.Len(t, active.Nodes, 1)
	assert.Equal(t, []tree.NodeID{root.ID}, repaired.ActivePath)
}

func TestRepairDropsUnreachableNodesAndRecomputesDepth(t *testing.T) {
	snap, session, child := seededSnapshot(t)

	orphan := &tree.Node{
		ID:    "node_orphan",
		Depth: 7,
		Parent: &tree.NodeParent{
			ParentNodeID: "node_gone",
		},
	}
	session.Nodes[orphan.ID] = orphan
	session.NodeOrder = append(session.NodeOrder, orphan.ID)
	child.Depth = 42

	repaired := Repair(snap)

	active := repaired.Sessions[repaired.ActiveSessionID]
	_, ok := active.Node("node_orphan")
	assert.False(t, ok)
	kept, ok := active.Node(child.ID)
	require.True(t, ok)
	assert.Equal(t, 1, kept.Depth, "depth comes from the parent chain, not the stored value")
	assert.NotContains(t, active.NodeOrder, tree.NodeID("node_orphan"))
}

func TestRepairDropsDanglingHighlights(t *testing.T) {
	snap, session, child := seededSnapshot(t)
	msg := session.Root().Messages[1]
	msg.Highlights = append(msg.Highlights, &tree.Highlight{
		ID:          "hl_dangling",
		ChildNodeID: "node_gone",
	})

	Repair(snap)

	require.Len(t, msg.Highlights, 1)
	assert.Equal(t, child.ID, msg.Highlights[0].ChildNodeID)
}

func TestRepairReassignsStaleActiveSession(t *testing.T) {
	snap, session, _ := seededSnapshot(t)
	snap.ActiveSessionID = "session_gone"

	repaired := Repair(snap)

	assert.Equal(t, session.ID, repaired.ActiveSessionID)
}

func TestRepairReconcilesHighlights(t *testing.T) {
	snap, session, child := seededSnapshot(t)

	repaired := Repair(snap)

	require.Equal(t, []tree.NodeID{session.RootNodeID, child.ID}, repaired.ActivePath)
	hl := session.Root().Messages[1].Highlights[0]
	assert.True(t, hl.IsActive)
}

func TestRepairIsIdempotent(t *testing.T) {
	snap, _, _ := seededSnapshot(t)

	once := Repair(snap)
	data, err := once.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	twice := Repair(decoded)

	assert.Equal(t, once.ActiveSessionID, twice.ActiveSessionID)
	assert.Equal(t, once.ActivePath, twice.ActivePath)
	assert.Equal(t, once.CurrentNodeID, twice.CurrentNodeID)
	assert.Equal(t, once.SessionOrder, twice.SessionOrder)
	onceSession := once.Sessions[once.ActiveSessionID]
	twiceSession := twice.Sessions[twice.ActiveSessionID]
	assert.Equal(t, onceSession.NodeOrder, twiceSession.NodeOrder)
	assert.Len(t, twiceSession.Nodes, len(onceSession.Nodes))
}

func TestSnapshotRoundTrip(t *testing.T) {
	snap, session, child := seededSnapshot(t)

	data, err := snap.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, Version, decoded.Version)
	assert.Equal(t, session.ID, decoded.ActiveSessionID)
	restored := decoded.Sessions[session.ID]
	require.NotNil(t, restored)
	restoredChild, ok := restored.Node(child.ID)
	require.True(t, ok)
	assert.Equal(t, "define perennial", restoredChild.Messages[0].Text)

	_, err = Decode([]byte("{not json"))
	require.Error(t, err)
}
