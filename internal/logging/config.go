package logging

import (
	"os"
	"path/filepath"

	"github.com/cristianoliveira/tmux-rotate/internal/config"
)

// Config holds logging configuration.
type Config struct {
	// Enabled determines whether logging is active.
	Enabled bool
	// Level is the minimum log level to record.
	Level string
	// MaxFiles is the maximum number of log files to retain.
	MaxFiles int
	// Dir overrides the log directory. Empty means LogDir().
	Dir string
	// Command is the name of the command being executed.
	Command string
	// PID is the process ID.
	PID int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Enabled:  false,
		Level:    "info",
		MaxFiles: 10,
		Command:  filepath.Base(os.Args[0]),
		PID:      os.Getpid(),
	}
}

// FromGlobalConfig creates a logging Config from the global configuration.
// debug forces the debug level; quiet (without debug) forces error.
func FromGlobalConfig() Config {
	cfg := DefaultConfig()
	cfg.Enabled = config.GetBool("logging_enabled", false)
	cfg.Level = config.Get("logging_level", "info")
	cfg.MaxFiles = config.GetInt("logging_max_files", 10)
	switch {
	case config.GetBool("debug", false):
		cfg.Level = "debug"
	case config.GetBool("quiet", false):
		cfg.Level = "error"
	}
	return cfg
}

// LogDir returns the directory where log files are stored:
// {state_dir}/logs when writable, otherwise {os.TempDir()}/tmux-rotate/logs.
func LogDir() (string, error) {
	if stateDir := config.Get("state_dir", ""); stateDir != "" {
		logDir := filepath.Join(stateDir, "logs")
		if err := os.MkdirAll(logDir, 0700); err == nil && canWrite(logDir) {
			return logDir, nil
		}
	}
	tempBase := filepath.Join(os.TempDir(), "tmux-rotate", "logs")
	if err := os.MkdirAll(tempBase, 0700); err != nil {
		return "", err
	}
	return tempBase, nil
}

func canWrite(dir string) bool {
	f, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
