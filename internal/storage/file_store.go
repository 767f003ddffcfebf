package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cristianoliveira/tmux-rotate/internal/colors"
	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
)

// FileStore keeps the table in <dir>/rotations.json. Writes go through a
// temporary file and rename while holding the directory lock, so readers
// never observe a partial table.
type FileStore struct {
	path    string
	lockDir string
}

// NewFileStore creates the state directory and returns a store inside it.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("storage: state directory not configured")
	}
	if err := os.MkdirAll(dir, FileModeDir); err != nil {
		return nil, fmt.Errorf("storage: create state directory: %w", err)
	}
	return &FileStore{
		path:    filepath.Join(dir, StateKey+".json"),
		lockDir: filepath.Join(dir, "lock"),
	}, nil
}

// Path returns the location of the state file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the table. A missing file is an empty table.
func (s *FileStore) Load(ctx context.Context) (rotation.Table, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return rotation.Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", s.path, err)
	}
	return rotation.DecodeTable(data)
}

// Save replaces the persisted table.
func (s *FileStore) Save(ctx context.Context, table rotation.Table) error {
	data, err := table.Encode()
	if err != nil {
		return err
	}
	return WithLock(ctx, s.lockDir, func() error {
		tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+StateKey+"-*.json")
		if err != nil {
			return fmt.Errorf("storage: create temp file: %w", err)
		}
		tmpName := tmp.Name()
		defer os.Remove(tmpName)

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			return fmt.Errorf("storage: write temp file: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("storage: close temp file: %w", err)
		}
		if err := os.Chmod(tmpName, FileModeFile); err != nil {
			return fmt.Errorf("storage: chmod temp file: %w", err)
		}
		if err := os.Rename(tmpName, s.path); err != nil {
			return fmt.Errorf("storage: replace %s: %w", s.path, err)
		}
		colors.Event(colors.TraceDebug, "storage", "save", "completed", nil, "entries", len(table), "path", s.path)
		return nil
	})
}
