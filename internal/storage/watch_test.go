package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
)

func TestPathOf(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rotations.json"), PathOf(fs))
	assert.Empty(t, PathOf(rotation.NewMemoryStore(nil)))
}

func TestWatchRejectsEmptyPath(t *testing.T) {
	_, err := Watch(context.Background(), "", 0)
	assert.ErrorIs(t, err, ErrNotWatchable)
}

func TestWatchNotifiesOnSave(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := Watch(ctx, s.Path(), 10*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, rotation.Table{1: {Enabled: true, IntervalSec: 5}}))
	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification after save")
	}
}

func TestWatchIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := Watch(ctx, filepath.Join(dir, "rotations.json"), 10*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600))
	select {
	case <-changes:
		t.Fatal("unexpected notification")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	changes, err := Watch(ctx, filepath.Join(t.TempDir(), "rotations.json"), 0)
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-changes:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write", fsnotify.Event{Name: "/s/rotations.json", Op: fsnotify.Write}, true},
		{"rename target", fsnotify.Event{Name: "/s/rotations.json", Op: fsnotify.Create}, true},
		{"sqlite wal", fsnotify.Event{Name: "/s/tmux-rotate.db-wal", Op: fsnotify.Write}, false},
		{"chmod only", fsnotify.Event{Name: "/s/rotations.json", Op: fsnotify.Chmod}, false},
		{"temp file", fsnotify.Event{Name: "/s/.rotations-123.json", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.event, "rotations.json"))
		})
	}
}
