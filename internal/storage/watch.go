package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// DefaultWatchGap is the minimum time between two change notifications.
const DefaultWatchGap = 250 * time.Millisecond

// ErrNotWatchable is returned by Watch for stores without a backing file.
var ErrNotWatchable = errors.New("storage: store has no file to watch")

// PathOf returns the file backing store, or "" for in-memory stores.
func PathOf(store Store) string {
	if p, ok := store.(interface{ Path() string }); ok {
		return p.Path()
	}
	return ""
}

// Watch notifies on the returned channel whenever the file at path, or a
// sibling sharing its name as prefix (such as a SQLite -wal file), changes.
// Bursts are coalesced: at most one notification is pending and consecutive
// notifications are at least gap apart. The channel is closed when ctx ends.
func Watch(ctx context.Context, path string, gap time.Duration) (<-chan struct{}, error) {
	if path == "" {
		return nil, ErrNotWatchable
	}
	if gap <= 0 {
		gap = DefaultWatchGap
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("storage: create watcher: %w", err)
	}
	// The file is replaced by rename on save, so watch its directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("storage: watch %s: %w", filepath.Dir(path), err)
	}

	changes := make(chan struct{}, 1)
	limiter := rate.NewLimiter(rate.Every(gap), 1)
	base := filepath.Base(path)
	go func() {
		defer close(changes)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !relevant(event, base) {
					continue
				}
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return changes, nil
}

func relevant(event fsnotify.Event, base string) bool {
	if !strings.HasPrefix(filepath.Base(event.Name), base) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}
