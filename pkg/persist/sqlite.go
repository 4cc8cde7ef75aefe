package persist

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SQLiteBackend stores the snapshot blob in a single-row table. It is an
// alternative to FileBackend for deployments that already keep their state
// in SQLite.
type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteBackend(dsn string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite backend")
	}
	b := &SQLiteBackend{db: db}
	if err := b.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	_, err := b.db.Exec(`
CREATE TABLE IF NOT EXISTS snapshots (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  data BLOB NOT NULL,
  saved_at TIMESTAMP NOT NULL
);
`)
	return errors.Wrap(err, "migrating sqlite backend")
}

func (b *SQLiteBackend) Load(ctx context.Context) ([]byte, bool, error) {
	row := b.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE id = 1`)
	var data []byte
	switch err := row.Scan(&data); err {
	case nil:
		return data, true, nil
	case sql.ErrNoRows:
		return nil, false, nil
	default:
		return nil, false, errors.Wrap(err, "loading snapshot")
	}
}

func (b *SQLiteBackend) Save(ctx context.Context, data []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, data, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at`,
		data, time.Now().Format(time.RFC3339Nano))
	return errors.Wrap(err, "saving snapshot")
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

var _ Backend = (*SQLiteBackend)(nil)
