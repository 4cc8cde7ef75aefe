package persist

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Backend is durable storage for a single serialized snapshot blob. Load
// reports absence via the bool rather than an error. Both operations are
// best-effort from the store's point of view: failures are logged and
// the in-memory state stays authoritative.
type Backend interface {
	Load(ctx context.Context) ([]byte, bool, error)
	Save(ctx context.Context, data []byte) error
}

// FileBackend stores the snapshot as one JSON file on disk.
type FileBackend struct {
	Path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

func (b *FileBackend) Load(_ context.Context) ([]byte, bool, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "reading %s", b.Path)
	}
	return data, true, nil
}

// Save writes to a temp file and renames it into place so an interrupted
// write can never leave a truncated snapshot behind.
func (b *FileBackend) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".arbor-state-*")
	if err != nil {
		return errors.Wrap(err, "creating temp snapshot file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "writing snapshot")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "closing snapshot")
	}
	if err := os.Rename(tmpName, b.Path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "renaming snapshot into %s", b.Path)
	}
	return nil
}

var _ Backend = (*FileBackend)(nil)
