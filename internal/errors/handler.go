// Package errors reports command failures to the terminal or the popup.
package errors

import (
	stderrors "errors"
	"sync"

	"github.com/cristianoliveira/tmux-rotate/internal/colors"
	"github.com/cristianoliveira/tmux-rotate/internal/hooks"
	"github.com/cristianoliveira/tmux-rotate/internal/protocol"
	"github.com/cristianoliveira/tmux-rotate/internal/storage"
	"github.com/cristianoliveira/tmux-rotate/internal/tmux"
)

// ErrorHandler is the interface for error handling.
// Different implementations can handle errors differently based on context.
type ErrorHandler interface {
	Error(msg string)
	Warning(msg string)
	Info(msg string)
	Success(msg string)
}

// CLIHandler handles errors by printing to stdout/stderr using the colors package.
type CLIHandler struct {
	colors     ColorOutput
	mu         sync.Mutex
	inHandling bool
}

type ColorOutput interface {
	Error(msgs ...string)
	Warning(msgs ...string)
	Info(msgs ...string)
	Success(msgs ...string)
}

// NewCLIHandler creates a CLIHandler writing to out, or to the terminal
// when out is nil.
func NewCLIHandler(out ColorOutput) *CLIHandler {
	if out == nil {
		out = terminal{}
	}
	return &CLIHandler{colors: out}
}

// NewDefaultCLIHandler creates a CLIHandler writing colored lines to the terminal.
func NewDefaultCLIHandler() *CLIHandler {
	return NewCLIHandler(nil)
}

// terminal is the ColorOutput backed by the colors package: errors and
// warnings go to stderr, the rest to stdout.
type terminal struct{}

func (terminal) Error(msgs ...string)   { colors.Error(msgs...) }
func (terminal) Warning(msgs ...string) { colors.Warning(msgs...) }
func (terminal) Info(msgs ...string)    { colors.Info(msgs...) }
func (terminal) Success(msgs ...string) { colors.Success(msgs...) }

func (h *CLIHandler) Error(msg string) {
	h.mu.Lock()
	if h.inHandling {
		h.mu.Unlock()
		h.colors.Error(msg)
		return
	}
	h.inHandling = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.inHandling = false
		h.mu.Unlock()
	}()

	h.colors.Error(msg)
}

func (h *CLIHandler) Warning(msg string) {
	h.colors.Warning(msg)
}

func (h *CLIHandler) Info(msg string) {
	h.colors.Info(msg)
}

func (h *CLIHandler) Success(msg string) {
	h.colors.Success(msg)
}

// Hint returns a follow-up suggestion for well-known failures, or "".
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, tmux.ErrTmuxNotRunning):
		return "start tmux first, or set tmux_socket when the server uses -L"
	case stderrors.Is(err, tmux.ErrSessionNotFound):
		return "the session no longer exists; run 'tmux-rotate closed <id>' to forget it"
	case stderrors.Is(err, protocol.ErrMissingWindow):
		return "pass --session when running outside tmux"
	case stderrors.Is(err, protocol.ErrDaemonRunning):
		return "stop the running daemon or use a different socket_path"
	case stderrors.Is(err, storage.ErrLockTimeout):
		return "another tmux-rotate process holds the state lock"
	case stderrors.Is(err, hooks.ErrHookFailed):
		return "the change was applied; set hooks_failure_mode to warn to keep going on hook errors"
	default:
		return ""
	}
}

// Report prints err through h, followed by a hint when one is known.
func Report(h ErrorHandler, err error) {
	if err == nil {
		return
	}
	h.Error(err.Error())
	if hint := Hint(err); hint != "" {
		h.Info(hint)
	}
}
