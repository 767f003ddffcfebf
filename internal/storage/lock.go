package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrLockTimeout is returned when the state lock stays held by another
// process for longer than lockTimeout.
var ErrLockTimeout = errors.New("storage: lock timeout")

const (
	lockTimeout = 10 * time.Second
	lockRetry   = 50 * time.Millisecond
	// lockStaleAfter is the age after which a lock left by a crashed
	// process is broken.
	lockStaleAfter = 30 * time.Second
)

// Lock is a cross-process lock backed by the atomic creation of a directory.
type Lock struct {
	dir string
}

// NewLock creates a new lock at the given directory path.
func NewLock(dir string) *Lock {
	return &Lock{dir: dir}
}

// Acquire creates the lock directory, retrying until the timeout or ctx
// expires.
func (l *Lock) Acquire(ctx context.Context) error {
	start := time.Now()
	for {
		err := os.Mkdir(l.dir, FileModeDir)
		if err == nil {
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("create lock directory: %w", err)
		}
		if l.breakStale() {
			continue
		}
		if time.Since(start) > lockTimeout {
			return fmt.Errorf("%w: %s still held after %s", ErrLockTimeout, l.dir, lockTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetry):
		}
	}
}

// breakStale removes a lock directory older than lockStaleAfter.
func (l *Lock) breakStale() bool {
	info, err := os.Stat(l.dir)
	if err != nil || time.Since(info.ModTime()) < lockStaleAfter {
		return false
	}
	return os.Remove(l.dir) == nil
}

// Release releases the lock by removing the directory.
func (l *Lock) Release() error {
	return os.Remove(l.dir)
}

// WithLock executes fn while holding the lock at dir.
func WithLock(ctx context.Context, dir string, fn func() error) error {
	lock := NewLock(dir)
	if err := lock.Acquire(ctx); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer lock.Release()
	return fn()
}
