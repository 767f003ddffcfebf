package colors

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Trace lines are single JSON objects written to stderr in debug mode. They
// follow tmux calls and state saves so a daemon log can be filtered with jq.

// Level is the severity of a trace line.
type Level string

const (
	TraceDebug Level = "debug"
	TraceInfo  Level = "info"
	TraceError Level = "error"
)

// TraceLine is one trace record.
type TraceLine struct {
	Time      time.Time      `json:"time"`
	Level     Level          `json:"level"`
	Scope     string         `json:"scope"`
	Op        string         `json:"op"`
	Outcome   string         `json:"outcome"`
	ElapsedMs float64        `json:"elapsed_ms,omitempty"`
	Err       string         `json:"err,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

var (
	traceMu    sync.Mutex
	traceMuted atomic.Int32
)

// MuteTraces suppresses trace output until the returned func is called.
// Mutes nest, so output resumes once every restore func has run.
func MuteTraces() (restore func()) {
	traceMuted.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { traceMuted.Add(-1) })
	}
}

func tracing() bool {
	return debugEnabled && traceMuted.Load() == 0
}

// Event writes one trace line. attrs alternate keys and values like the
// arguments of a charmbracelet logger; a trailing key maps to nil.
func Event(level Level, scope, op, outcome string, err error, attrs ...any) {
	if !tracing() {
		return
	}
	line := TraceLine{Level: level, Scope: scope, Op: op, Outcome: outcome, Attrs: pairs(attrs)}
	if err != nil {
		line.Err = err.Error()
	}
	writeTrace(line)
}

// Span traces one operation from Begin to End.
type Span struct {
	scope string
	op    string
	start time.Time
	attrs []any
}

// Begin writes a "started" debug line for op and returns its span.
func Begin(scope, op string, attrs ...any) *Span {
	Event(TraceDebug, scope, op, "started", nil, attrs...)
	return &Span{scope: scope, op: op, start: time.Now(), attrs: attrs}
}

// End closes the span: "completed" at debug level, or "failed" at error
// level when err is set. attrs are merged over the ones given to Begin.
func (s *Span) End(err error, attrs ...any) {
	if !tracing() {
		return
	}
	line := TraceLine{
		Level:     TraceDebug,
		Scope:     s.scope,
		Op:        s.op,
		Outcome:   "completed",
		ElapsedMs: float64(time.Since(s.start).Microseconds()) / 1000,
		Attrs:     pairs(append(append([]any(nil), s.attrs...), attrs...)),
	}
	if err != nil {
		line.Level = TraceError
		line.Outcome = "failed"
		line.Err = err.Error()
	}
	writeTrace(line)
}

func pairs(kv []any) map[string]any {
	if len(kv) == 0 {
		return nil
	}
	out := make(map[string]any, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 < len(kv) {
			out[key] = kv[i+1]
		} else {
			out[key] = nil
		}
	}
	return out
}

func writeTrace(line TraceLine) {
	line.Time = time.Now().UTC()
	data, err := json.Marshal(line)
	if err != nil {
		data, _ = json.Marshal(TraceLine{Time: line.Time, Level: line.Level, Scope: line.Scope, Op: line.Op,
			Outcome: line.Outcome, Err: fmt.Sprintf("unencodable attrs: %v", err)})
	}

	traceMu.Lock()
	defer traceMu.Unlock()
	emit(stderr, "%s\n", data)
}
