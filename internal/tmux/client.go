// Package tmux provides the tmux client used to enumerate and switch
// sessions and windows, and the rotation gateway built on top of it.
package tmux

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cristianoliveira/tmux-rotate/internal/colors"
)

// Window describes one tmux window of a session.
type Window struct {
	ID     string
	Index  int
	Name   string
	Active bool
}

// Client is an interface that abstracts the tmux operations tmux-rotate needs.
type Client interface {
	// Run executes a tmux command with the given arguments.
	Run(ctx context.Context, args ...string) (string, string, error)

	// HasSession checks if the tmux server is running.
	HasSession(ctx context.Context) (bool, error)

	// CurrentSession returns the session id ("$N") of the calling client.
	CurrentSession(ctx context.Context) (string, error)

	// ListSessions returns all sessions as a map of session id to name.
	ListSessions(ctx context.Context) (map[string]string, error)

	// ListWindows returns the windows of a session ordered by index.
	ListWindows(ctx context.Context, sessionID string) ([]Window, error)

	// SwitchClient brings a session to the foreground of the attached client.
	SwitchClient(ctx context.Context, sessionID string) error

	// SelectWindow makes a window the active window of its session.
	SelectWindow(ctx context.Context, windowID string) error

	// RespawnWindow restarts the command running in a window.
	RespawnWindow(ctx context.Context, windowID string) error

	// SetHook installs a global tmux hook.
	SetHook(ctx context.Context, name, command string) error
}

// DefaultClient implements Client using exec.Command to run tmux.
type DefaultClient struct {
	socketPath string
	timeout    time.Duration
}

var _ Client = (*DefaultClient)(nil)

// NewDefaultClient creates a new DefaultClient with the given options.
func NewDefaultClient(opts ...ClientOption) *DefaultClient {
	client := &DefaultClient{
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Run executes a tmux command with the given arguments.
// It returns stdout, stderr, and any error that occurred.
func (c *DefaultClient) Run(ctx context.Context, args ...string) (string, string, error) {
	command := ""
	if len(args) > 0 {
		command = args[0]
	}
	span := colors.Begin("tmux", command, "args", len(args))
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmdArgs := []string{}
	if c.socketPath != "" {
		cmdArgs = append(cmdArgs, "-L", c.socketPath)
	}
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.CommandContext(ctx, "tmux", cmdArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	span.End(err)
	if err != nil {
		return stdout.String(), stderr.String(), classify(args, stderr.String(), err)
	}
	return stdout.String(), stderr.String(), nil
}

// HasSession checks if the tmux server is running.
func (c *DefaultClient) HasSession(ctx context.Context) (bool, error) {
	if _, _, err := c.Run(ctx, "has-session"); err != nil {
		return false, ErrTmuxNotRunning
	}
	return true, nil
}

// CurrentSession returns the session id of the calling client.
func (c *DefaultClient) CurrentSession(ctx context.Context) (string, error) {
	stdout, _, err := c.Run(ctx, "display-message", "-p", "#{session_id}")
	if err != nil {
		return "", fmt.Errorf("get current session: %w", err)
	}
	id := strings.TrimSpace(stdout)
	if id == "" {
		return "", ErrSessionNotFound
	}
	return id, nil
}

// ListSessions returns all sessions as a map of session id to name.
func (c *DefaultClient) ListSessions(ctx context.Context) (map[string]string, error) {
	stdout, _, err := c.Run(ctx, "list-sessions", "-F", "#{session_id}\t#{session_name}")
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	sessions := make(map[string]string)
	for _, line := range splitLines(stdout) {
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) == 2 {
			sessions[parts[0]] = parts[1]
		}
	}
	return sessions, nil
}

// ListWindows returns the windows of a session ordered by index.
func (c *DefaultClient) ListWindows(ctx context.Context, sessionID string) ([]Window, error) {
	if sessionID == "" {
		return nil, ErrInvalidTarget
	}
	stdout, _, err := c.Run(ctx, "list-windows", "-t", sessionID, "-F", windowFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to list windows of %s: %w", sessionID, err)
	}
	return parseWindows(stdout)
}

// SwitchClient brings a session to the foreground of the attached client.
func (c *DefaultClient) SwitchClient(ctx context.Context, sessionID string) error {
	if _, _, err := c.Run(ctx, "switch-client", "-t", sessionID); err != nil {
		return fmt.Errorf("switch client to session %s: %w", sessionID, err)
	}
	return nil
}

// SelectWindow makes a window the active window of its session.
func (c *DefaultClient) SelectWindow(ctx context.Context, windowID string) error {
	if _, _, err := c.Run(ctx, "select-window", "-t", windowID); err != nil {
		return fmt.Errorf("select window %s: %w", windowID, err)
	}
	return nil
}

// RespawnWindow kills and restarts the command running in a window.
func (c *DefaultClient) RespawnWindow(ctx context.Context, windowID string) error {
	if _, _, err := c.Run(ctx, "respawn-window", "-k", "-t", windowID); err != nil {
		return fmt.Errorf("respawn window %s: %w", windowID, err)
	}
	return nil
}

// SetHook installs a global tmux hook.
func (c *DefaultClient) SetHook(ctx context.Context, name, command string) error {
	if _, _, err := c.Run(ctx, "set-hook", "-g", name, command); err != nil {
		return fmt.Errorf("set hook %s: %w", name, err)
	}
	return nil
}

const windowFormat = "#{window_id}\t#{window_index}\t#{window_active}\t#{window_name}"

// parseWindows parses list-windows output produced with windowFormat.
func parseWindows(out string) ([]Window, error) {
	var windows []Window
	for _, line := range splitLines(out) {
		parts := strings.SplitN(line, "\t", 4)
		if len(parts) < 3 {
			return nil, fmt.Errorf("unexpected list-windows line %q", line)
		}
		index, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("unexpected window index %q: %w", parts[1], err)
		}
		w := Window{ID: parts[0], Index: index, Active: parts[2] == "1"}
		if len(parts) == 4 {
			w.Name = parts[3]
		}
		windows = append(windows, w)
	}
	sort.SliceStable(windows, func(i, j int) bool { return windows[i].Index < windows[j].Index })
	return windows, nil
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
