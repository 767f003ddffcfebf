// Package colors provides color output utilities.
package colors

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Color constants
const (
	Red    = "\033[0;31m"
	Green  = "\033[0;32m"
	Yellow = "\033[1;33m"
	Blue   = "\033[0;34m"
	Cyan   = "\033[0;36m"
	Reset  = "\033[0m"
)

const checkmark = "✓"

// Logger defines the interface for structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var (
	debugEnabled = false
	quiet        = false
	logger       Logger
	loggerMu     sync.RWMutex

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func init() {
	if val := os.Getenv("TMUX_ROTATE_DEBUG"); val == "true" || val == "1" {
		debugEnabled = true
	}
}

// SetDebug enables or disables debug output.
func SetDebug(enabled bool) {
	debugEnabled = enabled
}

// DebugEnabled reports whether debug output is on.
func DebugEnabled() bool {
	return debugEnabled
}

// SetQuiet suppresses Info and Success output.
func SetQuiet(enabled bool) {
	quiet = enabled
}

// SetLogger sets the structured logger to mirror console output.
func SetLogger(l Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// SetOutput redirects console output. Used by tests.
func SetOutput(out, errOut io.Writer) {
	stdout = out
	stderr = errOut
}

func currentLogger() Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// emit writes a formatted line and falls back to a plain stderr write when
// the destination fails.
func emit(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		fmt.Fprintf(os.Stderr, "failed to print message: %v\n", err)
	}
}

// Error outputs an error message to stderr.
func Error(msgs ...string) {
	msg := strings.Join(msgs, " ")
	if l := currentLogger(); l != nil {
		l.Error(msg)
	}
	emit(stderr, "%sError:%s %s%s\n", Red, Reset, msg, Reset)
}

// Success outputs a success message to stdout.
func Success(msgs ...string) {
	msg := strings.Join(msgs, " ")
	if l := currentLogger(); l != nil {
		l.Info(msg, "type", "success")
	}
	if quiet {
		return
	}
	emit(stdout, "%s%s%s %s%s\n", Green, checkmark, Reset, msg, Reset)
}

// Warning outputs a warning message to stderr.
func Warning(msgs ...string) {
	msg := strings.Join(msgs, " ")
	if l := currentLogger(); l != nil {
		l.Warn(msg)
	}
	emit(stderr, "%sWarning:%s %s%s\n", Yellow, Reset, msg, Reset)
}

// Info outputs an informational message to stdout.
func Info(msgs ...string) {
	msg := strings.Join(msgs, " ")
	if l := currentLogger(); l != nil {
		l.Info(msg)
	}
	if quiet {
		return
	}
	emit(stdout, "%s%s%s\n", Blue, msg, Reset)
}

// Debug outputs a debug message to stderr if debug is enabled.
func Debug(msgs ...string) {
	if !debugEnabled {
		return
	}
	msg := strings.Join(msgs, " ")
	if l := currentLogger(); l != nil {
		l.Debug(msg)
	}
	emit(stderr, "%sDebug:%s %s%s\n", Cyan, Reset, msg, Reset)
}
