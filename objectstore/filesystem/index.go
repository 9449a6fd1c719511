package filesystem

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// Index memoizes SHA256 ETags in SQLite keyed by path, size, and mtime.
// A row only matches while the file is unchanged; any rewrite produces a
// fresh hash and replaces the row.
type Index struct {
	db *sql.DB
}

// OpenIndex opens (or creates) the ETag index at dsn.
func OpenIndex(ctx context.Context, dsn string) (*Index, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open etag index: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS etags (
		path  TEXT PRIMARY KEY,
		size  INTEGER NOT NULL,
		mtime INTEGER NOT NULL,
		etag  TEXT NOT NULL
	)`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate etag index: %w", err)
	}

	return &Index{db: db}, nil
}

// Lookup returns the memoized ETag for path when both size and mtime still
// match, or ok=false when the entry is absent or stale.
func (i *Index) Lookup(ctx context.Context, path string, size, mtime int64) (etag string, ok bool, err error) {
	const query = `SELECT etag FROM etags WHERE path = ? AND size = ? AND mtime = ?`

	err = i.db.QueryRowContext(ctx, query, path, size, mtime).Scan(&etag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("etag lookup: %w", err)
	}
	return etag, true, nil
}

// Save upserts the ETag for path at the given size and mtime.
func (i *Index) Save(ctx context.Context, path string, size, mtime int64, etag string) error {
	const query = `
	INSERT INTO etags (path, size, mtime, etag) VALUES (?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET size = excluded.size, mtime = excluded.mtime, etag = excluded.etag`

	if _, err := i.db.ExecContext(ctx, query, path, size, mtime, etag); err != nil {
		return fmt.Errorf("etag save: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (i *Index) Close() error {
	return i.db.Close()
}
