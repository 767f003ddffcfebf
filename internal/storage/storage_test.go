package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
	"github.com/cristianoliveira/tmux-rotate/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreLoadMissing(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	table, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestFileStoreRoundTripLayout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	last := int64(3000)

	require.NoError(t, s.Save(ctx, rotation.Table{7: {Enabled: true, IntervalSec: 5, RefreshOnRotate: true, LastRotatedAt: &last}}))

	data, err := os.ReadFile(filepath.Join(dir, "rotations.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"7":{"enabled":true,"intervalSec":5,"focusWindow":false,"refreshOnRotate":true,"lastRotatedAt":3000}}`, string(data))

	table, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), *table[7].LastRotatedAt)
	assert.NoDirExists(t, filepath.Join(dir, "lock"), "lock released after save")

	leftovers, err := filepath.Glob(filepath.Join(dir, ".rotations-*.json"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rotations.json"), []byte("{"), 0600))
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	require.Error(t, err)
}

func TestFileStoreConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			assert.NoError(t, s.Save(ctx, rotation.Table{id: {Enabled: true, IntervalSec: 5}}))
		}(i)
	}
	wg.Wait()

	table, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, table, 1, "each save replaces the whole table")
}

func TestLockTimesOutOnContext(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lock")
	held := NewLock(dir)
	require.NoError(t, held.Acquire(context.Background()))
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := NewLock(dir).Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLockBreaksStaleLock(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lock")
	require.NoError(t, os.Mkdir(dir, FileModeDir))
	old := time.Now().Add(-2 * lockStaleAfter)
	require.NoError(t, os.Chtimes(dir, old, old))

	require.NoError(t, WithLock(context.Background(), dir, func() error { return nil }))
	assert.NoDirExists(t, dir)
}

func TestNewForBackend(t *testing.T) {
	dir := t.TempDir()

	store, err := NewForBackend("file", dir)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	store, err = NewForBackend("SQLite", dir)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, store)
	require.NoError(t, Close(store))
	assert.FileExists(t, filepath.Join(dir, "tmux-rotate.db"))

	store, err = NewForBackend("redis", dir)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)
	require.NoError(t, Close(store))

	_, err = NewForBackend("file", "")
	require.Error(t, err)
}
