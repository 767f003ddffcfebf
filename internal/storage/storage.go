// Package storage persists the rotation table.
//
// Every backend stores a single record named StateKey whose value is the
// table encoded as a JSON object keyed by the stringified session id.
package storage

import (
	"os"

	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
)

// StateKey is the name of the persisted rotation record.
const StateKey = "rotations"

// File permission constants
const (
	// FileModeDir is the permission for directories (rwxr-xr-x)
	FileModeDir os.FileMode = 0755
	// FileModeFile is the permission for data files (rw-------)
	FileModeFile os.FileMode = 0600
)

// Store is the rotation table storage contract.
type Store = rotation.Store
