package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearHistoryFlattensPath(t *testing.T) {
	s := NewSession()
	msgs := seedRootMessages(t, s, "what are trees?", "Trees are perennial plants.")

	child, _, err := s.NewBranch(s.RootNodeID, msgs[1].ID, Selection{Text: "perennial", StartOffset: 10, EndOffset: 19}, "define perennial")
	require.NoError(t, err)
	child.AppendMessage(NewMessage(RoleAssistant, "Perennial means living for several years."))

	path, err := s.PathToNode(child.ID)
	require.NoError(t, err)

	history := s.LinearHistory(path, "")
	require.Len(t, history, 5)
	assert.Equal(t, HistoryMessage{Role: RoleUser, Text: "what are trees?"}, history[0])
	assert.Equal(t, HistoryMessage{Role: RoleAssistant, Text: "Trees are perennial plants."}, history[1])
	assert.Equal(t, HistoryMessage{Role: RoleUser, Text: `[Branch created from previous text: "perennial"]`}, history[2])
	assert.Equal(t, HistoryMessage{Role: RoleUser, Text: "define perennial"}, history[3])
	assert.Equal(t, HistoryMessage{Role: RoleAssistant, Text: "Perennial means living for several years."}, history[4])
}

func TestLinearHistoryOmitsOneMessage(t *testing.T) {
	s := NewSession()
	msgs := seedRootMessages(t, s, "first", "second")

	history := s.LinearHistory([]NodeID{s.RootNodeID}, msgs[1].ID)
	require.Len(t, history, 1)
	assert.Equal(t, "first", history[0].Text)
}

func TestLinearHistoryOmitsBranchPrompt(t *testing.T) {
	s := NewSession()
	msgs := seedRootMessages(t, s, "hi", "hello world")

	child, prompt, err := s.NewBranch(s.RootNodeID, msgs[1].ID, Selection{Text: "world", StartOffset: 6, EndOffset: 11}, "about the world")
	require.NoError(t, err)

	path, err := s.PathToNode(child.ID)
	require.NoError(t, err)

	history := s.LinearHistory(path, prompt.ID)
	require.Len(t, history, 3)
	assert.Equal(t, `[Branch created from previous text: "world"]`, history[2].Text)
	for _, h := range history {
		assert.NotEqual(t, "about the world", h.Text)
	}
}

func TestLinearHistorySkipsMissingNodes(t *testing.T) {
	s := NewSession()
	seedRootMessages(t, s, "only")

	history := s.LinearHistory([]NodeID{s.RootNodeID, "node_gone"}, "")
	require.Len(t, history, 1)
	assert.Equal(t, "only", history[0].Text)
}

func TestBranchMarkerQuotesSelection(t *testing.T) {
	marker := BranchMarker(Selection{Text: "some span"})
	assert.Equal(t, `[Branch created from previous text: "some span"]`, marker)
}
