package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
)

// ValidateStatusFormat validates status output format.
func ValidateStatusFormat(formatValue string) error {
	validFormats := map[string]bool{
		"summary": true,
		"table":   true,
		"json":    true,
	}

	if !validFormats[formatValue] {
		return fmt.Errorf("status: unknown format: %s", formatValue)
	}

	return nil
}

// DetermineStatusFormat resolves effective format preserving CLI precedence.
func DetermineStatusFormat(formatFlag, envFormat string, flagChanged bool) string {
	result := formatFlag
	if !flagChanged && envFormat != "" {
		result = envFormat
	}
	if result == "" {
		result = "summary"
	}
	return result
}

// WriteSessionStatus describes one session's rotation settings. A nil cfg
// shows the defaults a Start would use.
func WriteSessionStatus(w io.Writer, formatValue string, sessionID int, cfg *rotation.Config) error {
	if formatValue == "json" {
		return writeJSON(w, map[string]any{"windowId": sessionID, "config": cfg})
	}
	_, err := fmt.Fprint(w, SessionSummary(sessionID, cfg))
	return err
}

// SessionSummary renders the multi-line status shown by `status` and the popup.
func SessionSummary(sessionID int, cfg *rotation.Config) string {
	interval := rotation.DefaultIntervalSec
	var enabled, focus, refresh bool
	if cfg != nil {
		interval = cfg.IntervalSec
		enabled, focus, refresh = cfg.Enabled, cfg.FocusWindow, cfg.RefreshOnRotate
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Session ID: $%d\n", sessionID)
	fmt.Fprintf(&b, "Rotation: %s\n", onOff(enabled))
	fmt.Fprintf(&b, "Interval: %ds (min %d)\n", interval, rotation.MinIntervalSec)
	fmt.Fprintf(&b, "Focus session: %s\n", yesNo(focus))
	fmt.Fprintf(&b, "Refresh on rotate: %s\n", yesNo(refresh))
	return b.String()
}

// WriteTableStatus describes every tracked session.
func WriteTableStatus(w io.Writer, formatValue string, table rotation.Table) error {
	switch formatValue {
	case "json":
		if table == nil {
			table = rotation.Table{}
		}
		return writeJSON(w, table)
	case "table":
		return writeTable(w, table)
	default:
		return writeTableSummary(w, table)
	}
}

func writeTableSummary(w io.Writer, table rotation.Table) error {
	active := 0
	for _, cfg := range table {
		if cfg != nil && cfg.Enabled {
			active++
		}
	}
	_, err := fmt.Fprintf(w, "%d session(s) tracked, %d rotating\n", len(table), active)
	return err
}

func writeTable(w io.Writer, table rotation.Table) error {
	if _, err := fmt.Fprintf(w, "%-8s %-8s %-9s %-6s %-8s\n", "SESSION", "ROTATION", "INTERVAL", "FOCUS", "REFRESH"); err != nil {
		return err
	}
	for _, id := range table.IDs() {
		cfg := table[id]
		if cfg == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-8s %-8s %-9s %-6s %-8s\n",
			fmt.Sprintf("$%d", id), onOff(cfg.Enabled), fmt.Sprintf("%ds", cfg.IntervalSec),
			yesNo(cfg.FocusWindow), yesNo(cfg.RefreshOnRotate)); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
