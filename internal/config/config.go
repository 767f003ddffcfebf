// Package config provides configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cristianoliveira/tmux-rotate/internal/colors"
	"github.com/pelletier/go-toml/v2"
)

// File permission constants
const (
	// FileModeDir is the permission for directories (rwxr-xr-x)
	FileModeDir os.FileMode = 0755
	// FileModeFile is the permission for data files (rw-r--r--)
	FileModeFile os.FileMode = 0644

	// FileExtTOML is the file extension for TOML configuration files.
	FileExtTOML = ".toml"

	// EnvPrefix is the prefix of environment variables that override config keys.
	EnvPrefix = "TMUX_ROTATE_"
)

var (
	config    map[string]string
	configMap map[string]string
	mu        sync.RWMutex
)

func init() {
	initValidators()
}

// Load initializes configuration.
// Precedence: environment, then config file, then defaults.
func Load() {
	mu.Lock()
	defer mu.Unlock()

	config = make(map[string]string)
	configMap = make(map[string]string)

	setDefaults()
	loadFromEnv()
	loadFromFile()
	// Re-apply environment variable overrides so env wins
	loadFromEnv()
	validate()
	createSampleConfig()
}

// reset clears loaded configuration. Used by tests.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	config = nil
	configMap = nil
}

// setDefaults populates config with default values.
func setDefaults() {
	home, _ := os.UserHomeDir()
	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome == "" {
		xdgConfigHome = filepath.Join(home, ".config")
	}
	xdgStateHome := os.Getenv("XDG_STATE_HOME")
	if xdgStateHome == "" {
		xdgStateHome = filepath.Join(home, ".local", "state")
	}

	configDir := filepath.Join(xdgConfigHome, "tmux-rotate")
	stateDir := filepath.Join(xdgStateHome, "tmux-rotate")

	setDefault("config_dir", configDir)
	setDefault("state_dir", stateDir)
	setDefault("storage_backend", "file")
	setDefault("socket_path", filepath.Join(stateDir, "tmux-rotate.sock"))
	setDefault("tick_interval", "1s")
	setDefault("default_interval", "10")
	setDefault("prune_on_start", "true")
	setDefault("tmux_socket", "")
	setDefault("tmux_timeout", "5s")
	setDefault("debug", "false")
	setDefault("quiet", "false")
	setDefault("logging_enabled", "false")
	setDefault("logging_level", "info")
	setDefault("logging_max_files", "10")
	setDefault("hooks_dir", filepath.Join(configDir, "hooks"))
	setDefault("hooks_failure_mode", "warn")
	setDefault("hooks_async", "false")
	setDefault("hooks_timeout", "30s")
	setDefault("hooks_max_async", "10")
}

func setDefault(key, value string) {
	config[key] = value
	configMap[key] = value
}

// configPath returns the config file to read, or "" when none exists.
func configPath() string {
	if path := os.Getenv(EnvPrefix + "CONFIG_PATH"); path != "" {
		return path
	}
	configDir, ok := config["config_dir"]
	if !ok || configDir == "" {
		return ""
	}
	path := filepath.Join(configDir, "config"+FileExtTOML)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// loadFromFile reads configuration from a file.
func loadFromFile() {
	path := configPath()
	if path == "" {
		return
	}
	if strings.ToLower(filepath.Ext(path)) != FileExtTOML {
		colors.Debug(fmt.Sprintf("ignoring config file with unsupported extension: %s", path))
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		colors.Debug(fmt.Sprintf("unable to read config file %s: %v", path, err))
		return
	}

	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		colors.Warning(fmt.Sprintf("unable to parse config file %s: %v", path, err))
		return
	}

	for k, v := range raw {
		key := strings.ToLower(k)
		converted, ok := coerceConfigValue(v)
		if !ok {
			colors.Warning(fmt.Sprintf("unsupported config value type for %s: %T", key, v))
			continue
		}
		config[key] = converted
	}
}

// coerceConfigValue converts a TOML value to its string representation.
func coerceConfigValue(value interface{}) (string, bool) {
	switch typed := value.(type) {
	case string:
		return typed, true
	case int:
		return strconv.Itoa(typed), true
	case int64:
		return strconv.FormatInt(typed, 10), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(typed), true
	default:
		return "", false
	}
}

// loadFromEnv applies environment variable overrides.
func loadFromEnv() {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, EnvPrefix) {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(parts[0], EnvPrefix))
		if key == "config_path" {
			continue
		}
		config[key] = parts[1]
	}
}

// validate checks and normalizes configuration values using registered validators.
func validate() {
	for key, value := range config {
		validator := getValidator(key)
		if validator == nil {
			continue
		}
		defaultValue := configMap[key]
		normalized, err := validator(key, value, defaultValue)
		if err != nil {
			colors.Warning(fmt.Sprintf("validation error for %s: %v, using default: %s", key, err, defaultValue))
			config[key] = defaultValue
			continue
		}
		config[key] = normalized
	}
}

// valueToInterface converts a configuration value to the appropriate TOML type.
func valueToInterface(val string) interface{} {
	if n, err := strconv.Atoi(val); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return val
}

// createSampleConfig writes the defaults to config.toml if no file exists.
func createSampleConfig() {
	configDir := config["config_dir"]
	if configDir == "" {
		return
	}
	samplePath := filepath.Join(configDir, "config"+FileExtTOML)
	if _, err := os.Stat(samplePath); err == nil {
		return
	}
	if err := os.MkdirAll(configDir, FileModeDir); err != nil {
		colors.Debug(fmt.Sprintf("unable to create config dir %s: %v", configDir, err))
		return
	}

	typed := make(map[string]interface{}, len(configMap))
	for k, v := range configMap {
		typed[k] = valueToInterface(v)
	}

	data, err := toml.Marshal(typed)
	if err != nil {
		colors.Warning(fmt.Sprintf("unable to marshal sample config: %v", err))
		return
	}
	header := "# tmux-rotate configuration\n# This file is in TOML format.\n\n"
	if err := os.WriteFile(samplePath, append([]byte(header), data...), FileModeFile); err != nil {
		colors.Warning(fmt.Sprintf("unable to write sample config to %s: %v", samplePath, err))
	}
}

// Get returns a configuration value or default.
func Get(key, defaultValue string) string {
	mu.RLock()
	defer mu.RUnlock()
	if val, ok := config[key]; ok {
		return val
	}
	return defaultValue
}

// GetInt returns a configuration value as integer, or default.
func GetInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(Get(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

// GetBool returns a configuration value as boolean, or default.
func GetBool(key string, defaultValue bool) bool {
	switch normalizeBool(Get(key, "")) {
	case "true":
		return true
	case "false":
		return false
	default:
		return defaultValue
	}
}

// GetDuration returns a configuration value as a duration, or default.
func GetDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(Get(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}
