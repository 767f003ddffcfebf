package tmux

import (
	"errors"
	"fmt"
	"strings"
)

// Custom error types for tmux-specific failures.
var (
	// ErrTmuxNotRunning is returned when tmux server is not available.
	ErrTmuxNotRunning = errors.New("tmux server is not running")

	// ErrSessionNotFound is returned when a tmux session cannot be found.
	ErrSessionNotFound = errors.New("tmux session not found")

	// ErrWindowNotFound is returned when a tmux window cannot be found.
	ErrWindowNotFound = errors.New("tmux window not found")

	// ErrInvalidTarget is returned when a tmux target specification is invalid.
	ErrInvalidTarget = errors.New("invalid tmux target specification")

	// ErrTmuxCommandFailed is returned when a tmux command execution fails.
	ErrTmuxCommandFailed = errors.New("tmux command failed")
)

// classify maps tmux stderr to a sentinel error while keeping the cause.
func classify(args []string, stderr string, cause error) error {
	msg := strings.TrimSpace(stderr)
	var kind error
	switch {
	case strings.Contains(msg, "no server running"), strings.Contains(msg, "error connecting"):
		kind = ErrTmuxNotRunning
	case strings.Contains(msg, "can't find session"):
		kind = ErrSessionNotFound
	case strings.Contains(msg, "can't find window"):
		kind = ErrWindowNotFound
	default:
		kind = ErrTmuxCommandFailed
	}
	if msg == "" {
		return fmt.Errorf("tmux %v: %w: %w", args, kind, cause)
	}
	return fmt.Errorf("tmux %v: %w: %s: %w", args, kind, msg, cause)
}
