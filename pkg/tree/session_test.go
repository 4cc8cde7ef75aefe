package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionHasEmptyRoot(t *testing.T) {
	s := NewSession()

	root := s.Root()
	require.NotNil(t, root)
	assert.True(t, root.IsRoot())
	assert.Equal(t, 0, root.Depth)
	assert.Empty(t, root.Messages)
	assert.Equal(t, []NodeID{root.ID}, s.NodeOrder)
	assert.Equal(t, root.ID, s.LastFocusedNodeID)
}

func TestNewBranchCreatesChildAndHighlight(t *testing.T) {
	s := NewSession()
	msgs := seedRootMessages(t, s, "hi", "the quick brown fox")

	sel := Selection{Text: "quick", StartOffset: 4, EndOffset: 9}
	child, prompt, err := s.NewBranch(s.RootNodeID, msgs[1].ID, sel, "tell me more")
	require.NoError(t, err)

	assert.Equal(t, 1, child.Depth)
	require.NotNil(t, child.Parent)
	assert.Equal(t, s.RootNodeID, child.Parent.ParentNodeID)
	assert.Equal(t, msgs[1].ID, child.Parent.ParentMessageID)
	assert.Equal(t, sel, child.Parent.Selection)

	require.Len(t, child.Messages, 1)
	assert.Equal(t, prompt, child.Messages[0])
	assert.Equal(t, RoleUser, prompt.Role)
	assert.Equal(t, "tell me more", prompt.Text)

	require.Len(t, msgs[1].Highlights, 1)
	hl := msgs[1].Highlights[0]
	assert.Equal(t, child.ID, hl.ChildNodeID)
	assert.Equal(t, "quick", hl.Text)
	assert.Equal(t, 4, hl.StartOffset)
	assert.Equal(t, 9, hl.EndOffset)
	assert.False(t, hl.IsActive, "activation belongs to the reconciler")

	_, ok := s.Node(child.ID)
	assert.True(t, ok)
	assert.Equal(t, child.ID, s.NodeOrder[len(s.NodeOrder)-1])
}

func TestNewBranchAllowsOverlappingHighlights(t *testing.T) {
	s := NewSession()
	msgs := seedRootMessages(t, s, "hi", "overlapping spans here")

	_, _, err := s.NewBranch(s.RootNodeID, msgs[1].ID, Selection{Text: "overlapping", StartOffset: 0, EndOffset: 11}, "a")
	require.NoError(t, err)
	_, _, err = s.NewBranch(s.RootNodeID, msgs[1].ID, Selection{Text: "lapping spans", StartOffset: 4, EndOffset: 17}, "b")
	require.NoError(t, err)

	assert.Len(t, msgs[1].Highlights, 2)
}

func TestNewBranchRejectsBadInput(t *testing.T) {
	s := NewSession()
	msgs := seedRootMessages(t, s, "hi", "hello")

	_, _, err := s.NewBranch("node_missing", msgs[1].ID, Selection{Text: "he", StartOffset: 0, EndOffset: 2}, "x")
	require.ErrorIs(t, err, ErrValidation)

	_, _, err = s.NewBranch(s.RootNodeID, "msg_missing", Selection{Text: "he", StartOffset: 0, EndOffset: 2}, "x")
	require.ErrorIs(t, err, ErrValidation)

	before := len(s.Nodes)
	cases := []Selection{
		{Text: "", StartOffset: -1, EndOffset: 2},
		{Text: "", StartOffset: 2, EndOffset: 2},
		{Text: "", StartOffset: 3, EndOffset: 1},
		{Text: "", StartOffset: 0, EndOffset: 6},
	}
	for _, sel := range cases {
		_, _, err := s.NewBranch(s.RootNodeID, msgs[1].ID, sel, "x")
		require.ErrorIs(t, err, ErrValidation)
		var selErr *SelectionError
		require.ErrorAs(t, err, &selErr)
	}
	assert.Equal(t, before, len(s.Nodes), "rejected branches must not mutate the tree")
	assert.Empty(t, msgs[1].Highlights)
}

func TestSelectionValidate(t *testing.T) {
	text := "hello"
	require.NoError(t, Selection{StartOffset: 0, EndOffset: 5}.Validate(text))
	require.NoError(t, Selection{StartOffset: 4, EndOffset: 5}.Validate(text))
	require.Error(t, Selection{StartOffset: 0, EndOffset: 0}.Validate(text))
	require.Error(t, Selection{StartOffset: 0, EndOffset: 6}.Validate(text))
	require.Error(t, Selection{StartOffset: -1, EndOffset: 3}.Validate(text))
}

func TestDeriveAnchorOrder(t *testing.T) {
	s := NewSession()
	msgs := seedRootMessages(t, s, "zero", "one", "two")

	order, err := DeriveAnchorOrder(s.Root(), msgs[2].ID, Selection{StartOffset: 1, EndOffset: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(2001), order)

	_, err = DeriveAnchorOrder(s.Root(), "msg_missing", Selection{StartOffset: 0, EndOffset: 1})
	require.ErrorIs(t, err, ErrValidation)
}
