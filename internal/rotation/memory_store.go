package rotation

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Load and Save copy the table so
// callers never share entries with the store.
type MemoryStore struct {
	mu    sync.Mutex
	table Table
	saves int
}

// NewMemoryStore returns a store seeded with a copy of initial.
func NewMemoryStore(initial Table) *MemoryStore {
	return &MemoryStore{table: initial.Clone()}
}

// Load returns a copy of the stored table.
func (m *MemoryStore) Load(ctx context.Context) (Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table.Clone(), nil
}

// Save replaces the stored table with a copy of table.
func (m *MemoryStore) Save(ctx context.Context, table Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table = table.Clone()
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
