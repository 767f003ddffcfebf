// Package logging provides structured file logging for tmux-rotate.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/cristianoliveira/tmux-rotate/internal/colors"
)

// logFilePrefix names every log file so pruning never touches foreign files.
const logFilePrefix = "tmux-rotate_"

// Logger is the structured logging interface.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...any)
	// Info logs an informational message.
	Info(msg string, args ...any)
	// Warn logs a warning message.
	Warn(msg string, args ...any)
	// Error logs an error message.
	Error(msg string, args ...any)
	// With returns a new logger with additional key-value pairs.
	With(args ...any) Logger
	// Shutdown flushes any buffered logs and releases resources.
	Shutdown() error
}

// loggerImpl is the charmbracelet/log based implementation.
type loggerImpl struct {
	clogger *clog.Logger
	file    *os.File
	path    string
}

// Init initializes a new Logger with the given configuration.
// If config.Enabled is false, returns a no-op logger.
// Old log files beyond MaxFiles are pruned before the new file is opened.
func Init(cfg Config) (Logger, error) {
	if !cfg.Enabled {
		return Nop(), nil
	}
	logDir := cfg.Dir
	if logDir == "" {
		var err error
		if logDir, err = LogDir(); err != nil {
			return nil, fmt.Errorf("failed to determine log directory: %w", err)
		}
	}
	if err := prune(logDir, cfg.MaxFiles); err != nil {
		fmt.Fprintf(os.Stderr, "log pruning failed: %v\n", err)
	}
	fname := fmt.Sprintf("%s%s_PID%d_%s.log",
		logFilePrefix,
		time.Now().Format("20060102_150405"),
		cfg.PID,
		strings.ReplaceAll(cfg.Command, " ", "_"))
	path := filepath.Join(logDir, fname)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	clogger := clog.NewWithOptions(f, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Level:           parseLevel(cfg.Level),
	})
	clogger.SetFormatter(clog.JSONFormatter)
	clogger = clogger.With("pid", cfg.PID, "command", cfg.Command)
	return &loggerImpl{clogger: clogger, file: f, path: path}, nil
}

// parseLevel converts a string level to clog.Level.
func parseLevel(level string) clog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return clog.DebugLevel
	case "warn", "warning":
		return clog.WarnLevel
	case "error":
		return clog.ErrorLevel
	default:
		return clog.InfoLevel
	}
}

func (l *loggerImpl) Debug(msg string, args ...any) { l.clogger.Debug(msg, args...) }
func (l *loggerImpl) Info(msg string, args ...any)  { l.clogger.Info(msg, args...) }
func (l *loggerImpl) Warn(msg string, args ...any)  { l.clogger.Warn(msg, args...) }
func (l *loggerImpl) Error(msg string, args ...any) { l.clogger.Error(msg, args...) }

// With returns a child logger sharing the same file.
func (l *loggerImpl) With(args ...any) Logger {
	return &loggerImpl{clogger: l.clogger.With(args...), file: l.file, path: l.path}
}

func (l *loggerImpl) Shutdown() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// noopLogger is a logger that discards all output.
type noopLogger struct{}

func (n noopLogger) Debug(msg string, args ...any) {}
func (n noopLogger) Info(msg string, args ...any)  {}
func (n noopLogger) Warn(msg string, args ...any)  {}
func (n noopLogger) Error(msg string, args ...any) {}
func (n noopLogger) With(args ...any) Logger       { return n }
func (n noopLogger) Shutdown() error               { return nil }

// Nop returns a logger that discards everything.
func Nop() Logger {
	return noopLogger{}
}

var (
	globalLogger   Logger
	globalLoggerMu sync.RWMutex
)

// InitGlobal initializes the global logger from the global config and
// mirrors console output into it. Calling it again replaces the logger.
func InitGlobal() error {
	l, err := Init(FromGlobalConfig())
	if err != nil {
		return err
	}
	globalLoggerMu.Lock()
	if globalLogger != nil {
		_ = globalLogger.Shutdown()
	}
	globalLogger = l
	globalLoggerMu.Unlock()

	if impl, ok := l.(*loggerImpl); ok {
		colors.SetLogger(l)
		colors.Debug("logging to file:", impl.path)
	}
	return nil
}

// GetGlobal returns the global logger, or a no-op logger if not initialized.
func GetGlobal() Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	if globalLogger == nil {
		return Nop()
	}
	return globalLogger
}

// With returns a new global logger with additional key-value pairs.
func With(args ...any) Logger {
	return GetGlobal().With(args...)
}

// ShutdownGlobal shuts down the global logger.
func ShutdownGlobal() error {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		return nil
	}
	colors.SetLogger(nil)
	err := globalLogger.Shutdown()
	globalLogger = nil
	return err
}

// CurrentLogFile returns the path of the active log file, or "" when file
// logging is disabled.
func CurrentLogFile() string {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	if impl, ok := globalLogger.(*loggerImpl); ok {
		return impl.path
	}
	return ""
}
