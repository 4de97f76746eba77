package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB is the local key-value database (~/.wb/board.db).
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates the database at path.
func OpenDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; the CLI never shares the handle.
	db.SetMaxOpenConns(1)

	d := &DB{db: db}
	if err := d.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) initSchema() error {
	stmts := []string{
		"PRAGMA busy_timeout=5000",
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
	}
	for _, s := range stmts {
		if _, err := d.db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close releases the database.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Get returns the value stored under key and whether it exists.
func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage error reading %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (d *DB) Set(ctx context.Context, key, value string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("storage error writing %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (d *DB) Delete(ctx context.Context, key string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("storage error deleting %q: %w", key, err)
	}
	return nil
}

// ConnectedFile returns the path of the connected JSON file, or "" when the
// board lives in the local store.
func (d *DB) ConnectedFile(ctx context.Context) (string, error) {
	path, _, err := d.Get(ctx, FileKey)
	return path, err
}

// SetConnectedFile records path as the board's file. An empty path forgets it.
func (d *DB) SetConnectedFile(ctx context.Context, path string) error {
	if path == "" {
		return d.Delete(ctx, FileKey)
	}
	return d.Set(ctx, FileKey, path)
}

// ActiveStore returns the connected file store when a file is connected,
// otherwise the local store.
func (d *DB) ActiveStore(ctx context.Context) (Store, error) {
	path, err := d.ConnectedFile(ctx)
	if err != nil {
		return nil, err
	}
	if path != "" {
		return NewFileStore(path), nil
	}
	return NewLocalStore(d), nil
}
