package ids

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a prefixed opaque identifier, e.g. "node_6ba7b810-...".
// The prefix makes IDs self-describing in logs and serialized snapshots;
// callers must treat the remainder as opaque.
func New(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// HasPrefix reports whether id carries the given prefix.
func HasPrefix(id string, prefix string) bool {
	return strings.HasPrefix(id, prefix+"_")
}
