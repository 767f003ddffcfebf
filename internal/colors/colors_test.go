package colors

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	t.Cleanup(func() { SetOutput(os.Stdout, os.Stderr) })
	return &out, &errOut
}

type recordingLogger struct {
	levels   []string
	messages []string
}

func (r *recordingLogger) record(level, msg string) {
	r.levels = append(r.levels, level)
	r.messages = append(r.messages, msg)
}

func (r *recordingLogger) Debug(msg string, args ...any) { r.record("debug", msg) }
func (r *recordingLogger) Info(msg string, args ...any)  { r.record("info", msg) }
func (r *recordingLogger) Warn(msg string, args ...any)  { r.record("warn", msg) }
func (r *recordingLogger) Error(msg string, args ...any) { r.record("error", msg) }

func TestError(t *testing.T) {
	_, errOut := captureOutput(t)

	Error("something", "went wrong")

	output := errOut.String()
	assert.Contains(t, output, "Error:")
	assert.Contains(t, output, "something went wrong")
	assert.Contains(t, output, Red)
}

func TestSuccessAndInfoRespectQuiet(t *testing.T) {
	out, _ := captureOutput(t)

	Success("rotation started")
	Info("session $1")
	assert.Contains(t, out.String(), checkmark)
	assert.Contains(t, out.String(), "session $1")

	out.Reset()
	SetQuiet(true)
	defer SetQuiet(false)
	Success("hidden")
	Info("hidden")
	assert.Empty(t, out.String())
}

func TestWarningGoesToStderr(t *testing.T) {
	out, errOut := captureOutput(t)

	Warning("unknown backend")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Warning:")
}

func TestDebugGatedByFlag(t *testing.T) {
	_, errOut := captureOutput(t)
	SetDebug(false)
	defer SetDebug(false)

	Debug("invisible")
	assert.Empty(t, errOut.String())

	SetDebug(true)
	Debug("visible")
	assert.Contains(t, errOut.String(), "visible")
}

func TestLoggerMirrorsConsole(t *testing.T) {
	captureOutput(t)
	rec := &recordingLogger{}
	SetLogger(rec)
	defer SetLogger(nil)

	Error("e")
	Warning("w")
	Success("s")

	assert.Equal(t, []string{"error", "warn", "info"}, rec.levels)
	assert.Equal(t, []string{"e", "w", "s"}, rec.messages)
}

func decodeTraces(t *testing.T, raw string) []TraceLine {
	t.Helper()
	var lines []TraceLine
	for _, row := range strings.Split(strings.TrimSpace(raw), "\n") {
		var line TraceLine
		require.NoError(t, json.Unmarshal([]byte(row), &line))
		lines = append(lines, line)
	}
	return lines
}

func TestEventIsGatedByDebugMode(t *testing.T) {
	_, errOut := captureOutput(t)
	SetDebug(false)
	defer SetDebug(false)

	Event(TraceDebug, "rotation", "tick", "skipped", nil)
	assert.Empty(t, errOut.String())

	SetDebug(true)
	Event(TraceInfo, "rotation", "tick", "completed", nil, "session", 7, "dangling")

	lines := decodeTraces(t, errOut.String())
	require.Len(t, lines, 1)
	assert.Equal(t, TraceInfo, lines[0].Level)
	assert.Equal(t, "rotation", lines[0].Scope)
	assert.EqualValues(t, 7, lines[0].Attrs["session"])
	assert.Contains(t, lines[0].Attrs, "dangling")
	assert.Nil(t, lines[0].Attrs["dangling"])
}

func TestSpanReportsOutcome(t *testing.T) {
	_, errOut := captureOutput(t)
	SetDebug(true)
	defer SetDebug(false)

	Begin("tmux", "list-windows", "args", 3).End(nil)
	Begin("tmux", "select-window").End(errors.New("no such window"), "exit", 1)

	lines := decodeTraces(t, errOut.String())
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"started", "completed", "started", "failed"},
		[]string{lines[0].Outcome, lines[1].Outcome, lines[2].Outcome, lines[3].Outcome})
	assert.EqualValues(t, 3, lines[1].Attrs["args"])
	assert.Equal(t, TraceError, lines[3].Level)
	assert.Equal(t, "no such window", lines[3].Err)
	assert.EqualValues(t, 1, lines[3].Attrs["exit"])
}

func TestMuteTracesNests(t *testing.T) {
	_, errOut := captureOutput(t)
	SetDebug(true)
	defer SetDebug(false)

	outer := MuteTraces()
	inner := MuteTraces()
	Event(TraceError, "popup", "render", "failed", nil)
	inner()
	inner()
	Event(TraceError, "popup", "render", "failed", nil)
	assert.Empty(t, errOut.String())

	outer()
	Event(TraceError, "popup", "render", "failed", nil)
	assert.Len(t, decodeTraces(t, errOut.String()), 1)
}
