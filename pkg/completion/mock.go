package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/go-go-golems/arbor/pkg/tree"
)

// MockCompleter is the local stand-in used when no API key is configured.
// It echoes the prompt and the history length, which is enough to exercise
// branching end to end without a network.
type MockCompleter struct {
	// Delay simulates model latency. Zero means reply immediately.
	Delay time.Duration
}

func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

func (m *MockCompleter) Complete(ctx context.Context, history []tree.HistoryMessage, prompt string) (*Reply, error) {
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	return &Reply{
		SuggestedHeader: "Local mock reply",
		Message:         fmt.Sprintf("Mock response for: %s\n\nHistory length: %d", prompt, len(history)),
	}, nil
}

var _ Completer = (*MockCompleter)(nil)
