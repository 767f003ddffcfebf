// Package rotation implements the tab rotation scheduler: per-session
// rotation settings, due computation and the tick-driven engine that rotates
// each due session at most once at a time.
package rotation

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

const (
	// MinIntervalSec is the smallest accepted rotation period.
	MinIntervalSec = 5
	// DefaultIntervalSec is used when no interval was ever configured.
	DefaultIntervalSec = 10
)

// Config is the persisted rotation state of one session.
type Config struct {
	Enabled         bool   `json:"enabled"`
	IntervalSec     int    `json:"intervalSec"`
	FocusWindow     bool   `json:"focusWindow"`
	RefreshOnRotate bool   `json:"refreshOnRotate"`
	LastRotatedAt   *int64 `json:"lastRotatedAt,omitempty"`
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	if c.LastRotatedAt != nil {
		last := *c.LastRotatedAt
		cp.LastRotatedAt = &last
	}
	return &cp
}

// Interval returns the effective rotation period.
// Corrupt or hand-edited values never drop below MinIntervalSec.
func (c *Config) Interval() time.Duration {
	sec := c.IntervalSec
	if sec <= 0 {
		sec = DefaultIntervalSec
	}
	return time.Duration(ClampInterval(sec)) * time.Second
}

// DueAt returns the epoch milliseconds at which the session becomes due.
func (c *Config) DueAt() int64 {
	var last int64
	if c.LastRotatedAt != nil {
		last = *c.LastRotatedAt
	}
	return last + c.Interval().Milliseconds()
}

// Due reports whether the session should rotate at nowMs.
// It depends only on the persisted timestamp, so a restarted daemon picks
// up the schedule where the previous one left it.
func (c *Config) Due(nowMs int64) bool {
	return nowMs >= c.DueAt()
}

// ClampInterval enforces the minimum rotation period.
func ClampInterval(sec int) int {
	if sec < MinIntervalSec {
		return MinIntervalSec
	}
	return sec
}

// Table maps session ids to their rotation state.
// It marshals to a JSON object keyed by the stringified id.
type Table map[int]*Config

// Clone returns a deep copy of t. A nil table clones to an empty one.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for id, cfg := range t {
		out[id] = cfg.Clone()
	}
	return out
}

// IDs returns the table keys in ascending order.
func (t Table) IDs() []int {
	ids := make([]int, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Encode serializes t in its persisted layout. A nil table encodes as {}.
func (t Table) Encode() ([]byte, error) {
	if t == nil {
		t = Table{}
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("rotation: encode table: %w", err)
	}
	return data, nil
}

// DecodeTable parses a persisted table. Empty input yields an empty table
// and null entries are dropped.
func DecodeTable(data []byte) (Table, error) {
	table := Table{}
	if len(data) == 0 {
		return table, nil
	}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("rotation: decode table: %w", err)
	}
	for id, cfg := range table {
		if cfg == nil {
			delete(table, id)
		}
	}
	return table, nil
}

func int64Ptr(v int64) *int64 {
	return &v
}
