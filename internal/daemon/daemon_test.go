package daemon

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/tmux-rotate/internal/hooks"
	"github.com/cristianoliveira/tmux-rotate/internal/protocol"
	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
)

type harness struct {
	store   *rotation.MemoryStore
	engine  *rotation.Engine
	handler *protocol.Handler
	calls   atomic.Int32
	clock   atomic.Int64
}

func newHarness(t *testing.T, gateway func(ctx context.Context, id int) (bool, error)) *harness {
	t.Helper()
	h := &harness{}
	h.clock.Store(1_000_000)
	start := rotation.Table{}
	h.store = rotation.NewMemoryStore(start)
	gw := rotation.GatewayFunc(func(ctx context.Context, id int, _, _ bool) (bool, error) {
		h.calls.Add(1)
		return gateway(ctx, id)
	})
	h.engine = rotation.NewEngine(h.store, gw, rotation.WithClock(func() time.Time {
		return time.UnixMilli(h.clock.Load())
	}))
	h.handler = protocol.NewHandler(h.engine)
	return h
}

func (h *harness) startSession(t *testing.T, id int) {
	t.Helper()
	_, err := h.engine.Start(context.Background(), id, 5, false, false)
	require.NoError(t, err)
	h.clock.Add(5000)
}

func runDaemon(t *testing.T, opts Options) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, opts) }()
	t.Cleanup(cancel)
	return cancel, done
}

func waitStopped(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
		return nil
	}
}

func TestRunRequiresHandler(t *testing.T) {
	assert.ErrorIs(t, Run(context.Background(), Options{}), ErrNoHandler)
}

func TestRunTicksDueSessions(t *testing.T) {
	h := newHarness(t, func(context.Context, int) (bool, error) { return true, nil })
	h.startSession(t, 1)
	ticks := make(chan time.Time)

	cancel, done := runDaemon(t, Options{Handler: h.handler, TickChan: ticks})
	ticks <- time.Now()

	assert.Eventually(t, func() bool {
		cfg, err := h.engine.State(context.Background(), 1)
		return err == nil && cfg != nil && *cfg.LastRotatedAt == h.clock.Load()
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, waitStopped(t, done))
	assert.Equal(t, int32(1), h.calls.Load())
}

func TestRunFiresRotationHooks(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "events")
	for _, point := range []string{hooks.PostRotate, hooks.RotationFailed} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, point), 0755))
		script := "#!/bin/sh\necho \"$HOOK_POINT $SESSION_ID\" >> " + out + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, point, "record.sh"), []byte(script), 0755))
	}

	h := newHarness(t, func(_ context.Context, id int) (bool, error) {
		if id == 2 {
			return false, errors.New("boom")
		}
		return true, nil
	})
	h.startSession(t, 1)
	_, err := h.engine.Start(context.Background(), 2, 5, false, false)
	require.NoError(t, err)
	h.clock.Add(5000)
	ticks := make(chan time.Time)

	runner := hooks.New(hooks.Options{Dir: dir, Stderr: io.Discard})
	cancel, done := runDaemon(t, Options{Handler: h.handler, TickChan: ticks, Hooks: runner})
	ticks <- time.Now()

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(out)
		return err == nil && strings.Count(string(data), "\n") == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, waitStopped(t, done))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "post-rotate 1\n")
	assert.Contains(t, string(data), "rotation-failed 2\n")
}

func TestRunOverlappingTicksRotateOnce(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	h := newHarness(t, func(ctx context.Context, _ int) (bool, error) {
		entered <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return true, nil
	})
	h.startSession(t, 2)
	ticks := make(chan time.Time)

	cancel, done := runDaemon(t, Options{Handler: h.handler, TickChan: ticks})
	ticks <- time.Now()
	<-entered
	ticks <- time.Now()

	assert.Eventually(t, func() bool { return h.engine.Rotating(2) }, time.Second, 10*time.Millisecond)
	// The second tick must finish while the first still holds the session.
	time.Sleep(50 * time.Millisecond)
	close(release)

	assert.Eventually(t, func() bool { return !h.engine.Rotating(2) }, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, waitStopped(t, done))
	assert.Equal(t, int32(1), h.calls.Load())
}

func TestRunPrunesOnStartup(t *testing.T) {
	h := newHarness(t, func(context.Context, int) (bool, error) { return true, nil })
	h.startSession(t, 1)
	h.startSession(t, 2)

	var pruned sync.WaitGroup
	pruned.Add(1)
	prune := func(ctx context.Context) error {
		defer pruned.Done()
		_, err := h.engine.Prune(ctx, []int{2})
		return err
	}

	cancel, done := runDaemon(t, Options{Handler: h.handler, TickChan: make(chan time.Time), Prune: prune})
	pruned.Wait()
	cancel()
	require.NoError(t, waitStopped(t, done))

	table, err := h.engine.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2}, table.IDs())
}

func TestRunSurvivesPruneFailure(t *testing.T) {
	h := newHarness(t, func(context.Context, int) (bool, error) { return true, nil })
	ticks := make(chan time.Time)

	cancel, done := runDaemon(t, Options{
		Handler:  h.handler,
		TickChan: ticks,
		Prune:    func(context.Context) error { return errors.New("tmux down") },
	})
	ticks <- time.Now()
	cancel()

	assert.NoError(t, waitStopped(t, done))
}

func TestRunStopsWhenTickChanCloses(t *testing.T) {
	h := newHarness(t, func(context.Context, int) (bool, error) { return true, nil })
	ticks := make(chan time.Time)
	_, done := runDaemon(t, Options{Handler: h.handler, TickChan: ticks})

	close(ticks)

	assert.NoError(t, waitStopped(t, done))
}

func TestRunServesSocket(t *testing.T) {
	h := newHarness(t, func(context.Context, int) (bool, error) { return true, nil })
	dir, err := os.MkdirTemp("", "rotd")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	path := filepath.Join(dir, "d.sock")
	ln, err := protocol.Listen(path)
	require.NoError(t, err)

	cancel, done := runDaemon(t, Options{Handler: h.handler, Listener: ln, TickChan: make(chan time.Time)})
	client := protocol.NewClient(path)
	require.Eventually(t, func() bool { return client.Ping(context.Background()) }, time.Second, 10*time.Millisecond)

	resp, err := protocol.Call(context.Background(), client, protocol.Request{
		Type: protocol.TypeStartRotation, WindowID: protocol.Window(7), IntervalSec: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, 9, resp.Config.IntervalSec)

	cancel()
	require.NoError(t, waitStopped(t, done))
	assert.False(t, client.Ping(context.Background()))
}

func TestSetupTickChanUsesTicker(t *testing.T) {
	ch, stop := setupTickChan(Options{Interval: 5 * time.Millisecond})
	defer stop()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("ticker did not fire")
	}
}
