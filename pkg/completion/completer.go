package completion

import (
	"context"
	"errors"

	"github.com/go-go-golems/arbor/pkg/tree"
)

// ErrCompletionFailed marks assistant-call failures. The store records the
// error verbatim on the node's pending turn; the user's own message stays
// committed.
var ErrCompletionFailed = errors.New("completion failed")

// Reply is the assistant's answer for one turn. SuggestedHeader is a short
// label for the branch the turn belongs to; it may be empty when the
// assistant has nothing to suggest.
type Reply struct {
	Message         string
	SuggestedHeader string
}

// Completer produces an assistant reply given the linear history of the
// active branch and the freshly submitted prompt. Implementations may be a
// real model call or a local stand-in; the store is agnostic.
type Completer interface {
	Complete(ctx context.Context, history []tree.HistoryMessage, prompt string) (*Reply, error)
}
