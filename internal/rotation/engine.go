package rotation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cristianoliveira/tmux-rotate/internal/logging"
)

// Engine owns the rotation state machine of every tracked session.
//
// Table mutations are serialized by tableMu so that handlers running in the
// same process never interleave a read-modify-write. Gateway calls run
// outside tableMu; the per-session lock set guards against overlapping
// rotations of one session when ticks overlap, and remembers rotation times
// a slower tick has not saved yet.
type Engine struct {
	store   Store
	gateway Gateway
	now     func() time.Time
	logger  logging.Logger

	tableMu sync.Mutex
	locks   *lockSet
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an Engine backed by store and gateway.
func NewEngine(store Store, gateway Gateway, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		gateway: gateway,
		now:     time.Now,
		logger:  logging.Nop(),
		locks:   newLockSet(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TickResult summarizes the outcome of one Tick.
type TickResult struct {
	// Rotated lists sessions whose active window changed.
	Rotated []int `json:"rotated,omitempty"`
	// Idle lists due sessions where the gateway found nothing to rotate.
	Idle []int `json:"idle,omitempty"`
	// Busy lists due sessions skipped because a rotation was still in flight.
	Busy []int `json:"busy,omitempty"`
	// Disabled lists sessions whose rotation failed and was switched off.
	Disabled []int `json:"disabled,omitempty"`
	// Persisted is true when the table was written back.
	Persisted bool `json:"persisted"`
}

// outcome is the change one rotation attempt makes to its session entry.
type outcome struct {
	id        int
	rotatedAt int64
	disable   bool
	err       error
}

func (e *Engine) nowMs() int64 {
	return e.now().UnixMilli()
}

func (e *Engine) load(ctx context.Context) (Table, error) {
	table, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("rotation: load table: %w", err)
	}
	if table == nil {
		table = Table{}
	}
	return table, nil
}

func (e *Engine) save(ctx context.Context, table Table) error {
	if err := e.store.Save(ctx, table); err != nil {
		return fmt.Errorf("rotation: save table: %w", err)
	}
	return nil
}

// update runs fn against the current table under tableMu and saves the
// table when fn reports a change.
func (e *Engine) update(ctx context.Context, fn func(Table) bool) error {
	e.tableMu.Lock()
	defer e.tableMu.Unlock()
	table, err := e.load(ctx)
	if err != nil {
		return err
	}
	if !fn(table) {
		return nil
	}
	return e.save(ctx, table)
}

// State returns a copy of the session's entry, or nil when there is none.
func (e *Engine) State(ctx context.Context, sessionID int) (*Config, error) {
	e.tableMu.Lock()
	defer e.tableMu.Unlock()
	table, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	return table[sessionID].Clone(), nil
}

// List returns a copy of the whole table.
func (e *Engine) List(ctx context.Context) (Table, error) {
	e.tableMu.Lock()
	defer e.tableMu.Unlock()
	table, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	return table.Clone(), nil
}

// Start enables rotation for a session. The interval is clamped to
// MinIntervalSec. Starting a session that is already running keeps its
// lastRotatedAt so repeated starts do not shift the schedule; otherwise the
// clock restarts at now.
func (e *Engine) Start(ctx context.Context, sessionID, intervalSec int, focusWindow, refreshOnRotate bool) (*Config, error) {
	var started *Config
	err := e.update(ctx, func(table Table) bool {
		now := e.nowMs()
		last := int64Ptr(now)
		if existing := table[sessionID]; existing != nil && existing.Enabled && existing.LastRotatedAt != nil {
			last = int64Ptr(*existing.LastRotatedAt)
		}
		table[sessionID] = &Config{
			Enabled:         true,
			IntervalSec:     ClampInterval(intervalSec),
			FocusWindow:     focusWindow,
			RefreshOnRotate: refreshOnRotate,
			LastRotatedAt:   last,
		}
		started = table[sessionID].Clone()
		return true
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("rotation started", "session", sessionID, "interval_sec", started.IntervalSec,
		"focus", focusWindow, "refresh", refreshOnRotate)
	return started, nil
}

// Stop disables rotation for a session, keeping its settings for a later
// Start. It is a no-op when the session has no entry.
func (e *Engine) Stop(ctx context.Context, sessionID int) error {
	err := e.update(ctx, func(table Table) bool {
		cfg := table[sessionID]
		if cfg == nil || !cfg.Enabled {
			return false
		}
		cfg.Enabled = false
		return true
	})
	if err == nil {
		e.logger.Info("rotation stopped", "session", sessionID)
	}
	return err
}

// SetFocus changes whether the session is focused before each rotation.
func (e *Engine) SetFocus(ctx context.Context, sessionID int, focusWindow bool) error {
	return e.update(ctx, func(table Table) bool {
		cfg := table[sessionID]
		if cfg == nil || cfg.FocusWindow == focusWindow {
			return false
		}
		cfg.FocusWindow = focusWindow
		return true
	})
}

// SetRefreshOnRotate changes whether the newly active window is respawned.
func (e *Engine) SetRefreshOnRotate(ctx context.Context, sessionID int, refreshOnRotate bool) error {
	return e.update(ctx, func(table Table) bool {
		cfg := table[sessionID]
		if cfg == nil || cfg.RefreshOnRotate == refreshOnRotate {
			return false
		}
		cfg.RefreshOnRotate = refreshOnRotate
		return true
	})
}

// WindowClosed forgets a session that no longer exists.
func (e *Engine) WindowClosed(ctx context.Context, sessionID int) error {
	removed := false
	err := e.update(ctx, func(table Table) bool {
		if _, ok := table[sessionID]; !ok {
			return false
		}
		delete(table, sessionID)
		removed = true
		return true
	})
	if err == nil && removed {
		e.logger.Info("session entry removed", "session", sessionID)
	}
	return err
}

// Prune removes every entry whose session is not in alive and returns the
// removed ids. Nothing is written when all entries are alive.
func (e *Engine) Prune(ctx context.Context, alive []int) ([]int, error) {
	keep := make(map[int]struct{}, len(alive))
	for _, id := range alive {
		keep[id] = struct{}{}
	}
	var removed []int
	err := e.update(ctx, func(table Table) bool {
		for _, id := range table.IDs() {
			if _, ok := keep[id]; !ok {
				delete(table, id)
				removed = append(removed, id)
			}
		}
		return len(removed) > 0
	})
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		e.logger.Info("pruned stale sessions", "sessions", removed)
	}
	return removed, nil
}

// Tick rotates every enabled session that is due.
//
// Sessions are processed independently: a gateway failure disables only
// that session and never escapes Tick. Sessions already rotating (from an
// overlapping Tick) are skipped until the next tick, and a rotation such a
// Tick made but has not saved yet counts as the last one. Outcomes are applied to
// a freshly loaded table, so a Stop or close that raced with an in-flight
// rotation is not undone, and the table is only written when something
// changed. Only storage failures are returned.
func (e *Engine) Tick(ctx context.Context) (TickResult, error) {
	var result TickResult

	e.tableMu.Lock()
	table, err := e.load(ctx)
	if err == nil {
		e.locks.overlay(table)
	}
	e.tableMu.Unlock()
	if err != nil {
		return result, err
	}

	now := e.nowMs()
	var outcomes []outcome
	for _, id := range table.IDs() {
		cfg := table[id]
		if cfg == nil || !cfg.Enabled || !cfg.Due(now) {
			continue
		}
		if !e.locks.tryAcquire(id) {
			result.Busy = append(result.Busy, id)
			continue
		}
		out, rotated := e.rotate(ctx, id, cfg, now)
		switch {
		case out.disable:
			result.Disabled = append(result.Disabled, id)
			outcomes = append(outcomes, out)
		case rotated:
			result.Rotated = append(result.Rotated, id)
			outcomes = append(outcomes, out)
		default:
			result.Idle = append(result.Idle, id)
		}
	}

	if len(outcomes) == 0 {
		return result, nil
	}
	persisted, err := e.apply(ctx, outcomes)
	result.Persisted = persisted
	return result, err
}

// rotate runs one gateway call for id while holding its lock.
func (e *Engine) rotate(ctx context.Context, id int, cfg *Config, now int64) (out outcome, rotated bool) {
	out.id = id
	defer e.locks.release(id)
	defer func() {
		if r := recover(); r != nil {
			out = outcome{id: id, disable: true, err: fmt.Errorf("gateway panic: %v", r)}
			rotated = false
		}
		if out.disable {
			e.logger.Warn("rotation failed, disabling", "session", id, "error", out.err)
		}
	}()

	rotated, err := e.gateway.RotateOnce(ctx, id, cfg.FocusWindow, cfg.RefreshOnRotate)
	if err != nil {
		return outcome{id: id, disable: true, err: err}, false
	}
	if !rotated {
		e.logger.Debug("nothing to rotate", "session", id)
		return out, false
	}
	out.rotatedAt = now
	e.locks.markRotated(id, now)
	e.logger.Debug("rotated", "session", id, "at", now)
	return out, true
}

// apply merges tick outcomes into the current table and saves it if any
// entry changed. Entries deleted meanwhile stay deleted. Once the merge is
// stored, the unsaved rotation times of the outcomes are dropped; this
// happens under tableMu so no Tick can load the table in between.
func (e *Engine) apply(ctx context.Context, outcomes []outcome) (bool, error) {
	e.tableMu.Lock()
	defer e.tableMu.Unlock()
	table, err := e.load(ctx)
	if err != nil {
		return false, err
	}

	changed := false
	for _, out := range outcomes {
		cfg := table[out.id]
		if cfg == nil {
			continue
		}
		if out.disable {
			if cfg.Enabled {
				cfg.Enabled = false
				changed = true
			}
			continue
		}
		if cfg.LastRotatedAt == nil || *cfg.LastRotatedAt < out.rotatedAt {
			cfg.LastRotatedAt = int64Ptr(out.rotatedAt)
			changed = true
		}
	}
	if changed {
		if err := e.save(ctx, table); err != nil {
			return false, err
		}
	}
	for _, out := range outcomes {
		if !out.disable {
			e.locks.settle(out.id, out.rotatedAt)
		}
	}
	return changed, nil
}

// Rotating reports whether a rotation of sessionID is in flight.
func (e *Engine) Rotating(sessionID int) bool {
	return e.locks.held(sessionID)
}
