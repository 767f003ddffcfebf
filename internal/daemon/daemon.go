// Package daemon hosts the rotation engine: it drives the heartbeat that
// sends tick requests and serves control requests on a unix socket.
package daemon

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/cristianoliveira/tmux-rotate/internal/hooks"
	"github.com/cristianoliveira/tmux-rotate/internal/logging"
	"github.com/cristianoliveira/tmux-rotate/internal/protocol"
)

// DefaultTickInterval is the heartbeat period when none is configured.
const DefaultTickInterval = time.Second

// ErrNoHandler is returned by Run when Options.Handler is nil.
var ErrNoHandler = errors.New("daemon: handler is required")

// Options holds all parameters for the daemon loop.
type Options struct {
	Handler  *protocol.Handler
	Listener net.Listener
	Interval time.Duration
	TickChan <-chan time.Time
	// Prune runs once before the first tick to drop sessions that closed
	// while no daemon was running.
	Prune  func(ctx context.Context) error
	Logger logging.Logger
	// Hooks receives post-rotate and rotation-failed events. May be nil.
	Hooks *hooks.Runner
	// Signals makes Run stop on SIGINT or SIGTERM.
	Signals bool
}

// Run ticks the engine and serves the socket until ctx is cancelled or a
// stop signal arrives. Each heartbeat dispatches its tick in its own
// goroutine, so a slow rotation never delays the next heartbeat; the engine
// skips sessions whose previous rotation is still running.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return ErrNoHandler
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultTickInterval
	}
	logger := opts.Logger

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.Prune != nil {
		if err := opts.Prune(ctx); err != nil {
			logger.Warn("startup prune failed", "error", err)
		}
	}

	var sigChan chan os.Signal
	if opts.Signals {
		sigChan = make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)
	if opts.Listener != nil {
		server := protocol.NewServer(opts.Handler, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveErr <- server.Serve(ctx, opts.Listener)
		}()
		logger.Info("listening", "socket", opts.Listener.Addr().String())
	}

	tickChan, cleanupTicker := setupTickChan(opts)
	defer cleanupTicker()

	logger.Info("daemon started", "tick_interval", opts.Interval.String())
	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig.String())
			break loop
		case err := <-serveErr:
			if err != nil {
				logger.Error("socket server stopped", "error", err)
				runErr = err
			}
			break loop
		case _, ok := <-tickChan:
			if !ok {
				break loop
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				handleTick(ctx, opts.Handler, opts.Hooks, logger)
			}()
		}
	}

	cancel()
	wg.Wait()
	opts.Hooks.Wait()
	logger.Info("daemon stopped")
	return runErr
}

func setupTickChan(opts Options) (<-chan time.Time, func()) {
	if opts.TickChan != nil {
		return opts.TickChan, func() {}
	}

	ticker := time.NewTicker(opts.Interval)
	return ticker.C, ticker.Stop
}

func handleTick(ctx context.Context, handler *protocol.Handler, runner *hooks.Runner, logger logging.Logger) {
	resp := handler.Handle(ctx, protocol.Request{ID: uuid.NewString(), Type: protocol.TypeTick})
	if !resp.OK {
		logger.Error("tick failed", "error", resp.Error)
		return
	}
	if resp.Tick == nil {
		return
	}
	if len(resp.Tick.Rotated) > 0 || len(resp.Tick.Disabled) > 0 {
		logger.Info("tick", "rotated", resp.Tick.Rotated, "disabled", resp.Tick.Disabled,
			"busy", resp.Tick.Busy, "persisted", resp.Tick.Persisted)
	}
	fire(ctx, runner, hooks.PostRotate, resp.Tick.Rotated, logger)
	fire(ctx, runner, hooks.RotationFailed, resp.Tick.Disabled, logger)
}

// fire runs the hook point once per session.
func fire(ctx context.Context, runner *hooks.Runner, point string, sessions []int, logger logging.Logger) {
	for _, id := range sessions {
		env := map[string]string{"SESSION_ID": strconv.Itoa(id)}
		if err := runner.Run(ctx, point, env); err != nil {
			logger.Warn("hook aborted", "point", point, "session", id, "error", err)
		}
	}
}
