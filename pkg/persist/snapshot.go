package persist

import (
	"encoding/json"

	"github.com/go-go-golems/arbor/pkg/tree"
	"github.com/pkg/errors"
)

// Version is the snapshot schema version. Bump when the serialized shape
// changes incompatibly.
const Version = 1

// Snapshot is the durable form of the store: the session trees plus the
// UI focus substructure. Pending turns and other ephemera are excluded on
// purpose; they are rebuilt empty on load.
type Snapshot struct {
	Version         int                              `json:"version"`
	ActiveSessionID tree.SessionID                   `json:"activeSessionId,omitempty"`
	ActivePath      []tree.NodeID                    `json:"activePath,omitempty"`
	CurrentNodeID   tree.NodeID                      `json:"currentNodeId,omitempty"`
	Sessions        map[tree.SessionID]*tree.Session `json:"sessions"`
	SessionOrder    []tree.SessionID                 `json:"sessionOrder,omitempty"`
}

// NewSnapshot returns an empty snapshot at the current schema version.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version:  Version,
		Sessions: map[tree.SessionID]*tree.Session{},
	}
}

// Encode serializes the snapshot to its storage blob.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "encoding snapshot")
	}
	return data, nil
}

// Decode parses a storage blob. Callers fall back to a fresh snapshot on
// error; the blob is never partially applied.
func Decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(err, "decoding snapshot")
	}
	return &snap, nil
}
