// Package sqlite provides a SQLite-backed rotation table store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cristianoliveira/tmux-rotate/internal/colors"
	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
	_ "modernc.org/sqlite"
)

// stateKey mirrors storage.StateKey; sqlite cannot import its parent package.
const stateKey = "rotations"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

const upsertSQL = `
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// Store implements rotation.Store on top of a SQLite key/value table.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("sqlite storage: db path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite storage: create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: open db: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) init() error {
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("sqlite storage: set busy timeout: %w", err)
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("sqlite storage: create schema: %w", err)
	}
	return nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load reads the rotation record. A missing record is an empty table.
func (s *Store) Load(ctx context.Context) (rotation.Table, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", stateKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return rotation.Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: load: %w", err)
	}
	table, err := rotation.DecodeTable([]byte(value))
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: %w", err)
	}
	return table, nil
}

// Save replaces the rotation record in a single statement.
func (s *Store) Save(ctx context.Context, table rotation.Table) error {
	value, err := table.Encode()
	if err != nil {
		return fmt.Errorf("sqlite storage: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, upsertSQL, stateKey, string(value), utcNow()); err != nil {
		return fmt.Errorf("sqlite storage: save: %w", err)
	}
	colors.Event(colors.TraceDebug, "sqlite", "save", "completed", nil, "entries", len(table), "path", s.path)
	return nil
}

func utcNow() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
