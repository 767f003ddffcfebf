package app

import (
	"context"
	"time"

	"github.com/cristianoliveira/tmux-rotate/internal/config"
	"github.com/cristianoliveira/tmux-rotate/internal/daemon"
	"github.com/cristianoliveira/tmux-rotate/internal/protocol"
)

// DaemonOptions holds all parameters for the daemon command.
type DaemonOptions struct {
	Interval time.Duration
	NoSocket bool
	NoPrune  bool
	TickChan <-chan time.Time
}

// RunDaemon listens on the configured socket and runs the daemon loop
// until ctx is cancelled or a stop signal arrives.
func (a *App) RunDaemon(ctx context.Context, opts DaemonOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = config.GetDuration("tick_interval", daemon.DefaultTickInterval)
	}
	run := daemon.Options{
		Handler:  a.Handler,
		Interval: opts.Interval,
		TickChan: opts.TickChan,
		Logger:   a.Logger.With("component", "daemon"),
		Hooks:    a.Hooks,
		Signals:  true,
	}
	if !opts.NoPrune && config.GetBool("prune_on_start", true) {
		run.Prune = a.Prune
	}
	if !opts.NoSocket && a.SocketPath != "" {
		ln, err := protocol.Listen(a.SocketPath)
		if err != nil {
			return err
		}
		run.Listener = ln
	}
	return daemon.Run(ctx, run)
}
