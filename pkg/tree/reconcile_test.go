package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileHighlightsActivatesPath(t *testing.T) {
	s := NewSession()
	msgs := seedRootMessages(t, s, "hi", "pick a branch")

	left, _, err := s.NewBranch(s.RootNodeID, msgs[1].ID, Selection{Text: "pick", StartOffset: 0, EndOffset: 4}, "left")
	require.NoError(t, err)
	right, _, err := s.NewBranch(s.RootNodeID, msgs[1].ID, Selection{Text: "branch", StartOffset: 7, EndOffset: 13}, "right")
	require.NoError(t, err)

	changed := ReconcileHighlights(s, []NodeID{s.RootNodeID, left.ID})
	assert.True(t, changed)
	assert.True(t, highlightFor(t, msgs[1], left.ID).IsActive)
	assert.False(t, highlightFor(t, msgs[1], right.ID).IsActive)

	changed = ReconcileHighlights(s, []NodeID{s.RootNodeID, right.ID})
	assert.True(t, changed)
	assert.False(t, highlightFor(t, msgs[1], left.ID).IsActive)
	assert.True(t, highlightFor(t, msgs[1], right.ID).IsActive)
}

func TestReconcileHighlightsIsIdempotent(t *testing.T) {
	s := NewSession()
	msgs := seedRootMessages(t, s, "hi", "pick a branch")

	child, _, err := s.NewBranch(s.RootNodeID, msgs[1].ID, Selection{Text: "pick", StartOffset: 0, EndOffset: 4}, "x")
	require.NoError(t, err)

	path := []NodeID{s.RootNodeID, child.ID}
	require.True(t, ReconcileHighlights(s, path))
	assert.False(t, ReconcileHighlights(s, path), "second run must report no change")
}

func TestReconcileHighlightsDeactivatesOffPath(t *testing.T) {
	s := NewSession()
	msgs := seedRootMessages(t, s, "hi", "pick a branch")

	child, _, err := s.NewBranch(s.RootNodeID, msgs[1].ID, Selection{Text: "pick", StartOffset: 0, EndOffset: 4}, "x")
	require.NoError(t, err)
	require.True(t, ReconcileHighlights(s, []NodeID{s.RootNodeID, child.ID}))

	changed := ReconcileHighlights(s, []NodeID{s.RootNodeID})
	assert.True(t, changed)
	assert.False(t, highlightFor(t, msgs[1], child.ID).IsActive)
}

func highlightFor(t *testing.T, msg *Message, childID NodeID) *Highlight {
	t.Helper()
	for _, hl := range msg.Highlights {
		if hl.ChildNodeID == childID {
			return hl
		}
	}
	t.Fatalf("no highlight for child %s", childID)
	return nil
}
