package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
)

func TestDetermineStatusFormat(t *testing.T) {
	assert.Equal(t, "summary", DetermineStatusFormat("", "", false))
	assert.Equal(t, "json", DetermineStatusFormat("summary", "json", false))
	assert.Equal(t, "table", DetermineStatusFormat("table", "json", true))
}

func TestValidateStatusFormat(t *testing.T) {
	for _, f := range []string{"summary", "table", "json"} {
		assert.NoError(t, ValidateStatusFormat(f))
	}
	assert.Error(t, ValidateStatusFormat("yaml"))
}

func TestSessionSummary(t *testing.T) {
	out := SessionSummary(4, &rotation.Config{Enabled: true, IntervalSec: 30, RefreshOnRotate: true})

	assert.Equal(t, "Session ID: $4\nRotation: ON\nInterval: 30s (min 5)\nFocus session: no\nRefresh on rotate: yes\n", out)
}

func TestSessionSummaryWithoutEntry(t *testing.T) {
	out := SessionSummary(2, nil)

	assert.Contains(t, out, "Rotation: OFF")
	assert.Contains(t, out, "Interval: 10s")
}

func TestWriteSessionStatusJSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteSessionStatus(&buf, "json", 9, nil))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, float64(9), decoded["windowId"])
	assert.Nil(t, decoded["config"])
}

func TestWriteTableStatus(t *testing.T) {
	table := rotation.Table{
		3: {Enabled: true, IntervalSec: 5, FocusWindow: true},
		1: {Enabled: false, IntervalSec: 10},
	}

	var summary bytes.Buffer
	require.NoError(t, WriteTableStatus(&summary, "summary", table))
	assert.Equal(t, "2 session(s) tracked, 1 rotating\n", summary.String())

	var tbl bytes.Buffer
	require.NoError(t, WriteTableStatus(&tbl, "table", table))
	lines := bytes.Split(bytes.TrimSpace(tbl.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.True(t, bytes.HasPrefix(lines[1], []byte("$1 ")))
	assert.Contains(t, string(lines[2]), "ON")

	var js bytes.Buffer
	require.NoError(t, WriteTableStatus(&js, "json", table))
	var decoded map[string]rotation.Config
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.True(t, decoded["3"].FocusWindow)
}
