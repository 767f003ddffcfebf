package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cristianoliveira/tmux-rotate/internal/colors"
	"github.com/cristianoliveira/tmux-rotate/internal/config"
	"github.com/cristianoliveira/tmux-rotate/internal/storage/sqlite"
)

const (
	// BackendFile selects the JSON file store.
	BackendFile = "file"
	// BackendSQLite selects the SQLite store.
	BackendSQLite = "sqlite"

	sqliteFileName = "tmux-rotate.db"
)

var _ Store = (*sqlite.Store)(nil)
var _ Store = (*FileStore)(nil)

// NewFromConfig creates the store selected by storage_backend.
func NewFromConfig() (Store, error) {
	return NewForBackend(config.Get("storage_backend", BackendFile), config.Get("state_dir", ""))
}

// NewForBackend creates a store for backend inside stateDir. Unknown
// backends and SQLite initialization failures fall back to the file store.
func NewForBackend(backend, stateDir string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return NewFileStore(stateDir)
	case BackendSQLite:
		if stateDir == "" {
			return nil, fmt.Errorf("storage: state directory not configured")
		}
		store, err := sqlite.NewStore(filepath.Join(stateDir, sqliteFileName))
		if err != nil {
			colors.Warning(fmt.Sprintf("failed to initialize sqlite backend, falling back to file: %v", err))
			return NewFileStore(stateDir)
		}
		return store, nil
	default:
		colors.Warning(fmt.Sprintf("unknown storage backend '%s', falling back to file", backend))
		return NewFileStore(stateDir)
	}
}

// Close releases resources held by store, if any.
func Close(store Store) error {
	if c, ok := store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
