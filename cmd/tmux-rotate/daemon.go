package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/tmux-rotate/cmd"
	"github.com/cristianoliveira/tmux-rotate/internal/app"
	"github.com/cristianoliveira/tmux-rotate/internal/colors"
)

type daemonRunner interface {
	RunDaemon(ctx context.Context, opts app.DaemonOptions) error
}

// NewDaemonCmd creates the daemon command with explicit dependencies.
func NewDaemonCmd(runner daemonRunner) *cobra.Command {
	if runner == nil {
		panic("NewDaemonCmd: runner dependency cannot be nil")
	}

	var (
		interval time.Duration
		noSocket bool
		noPrune  bool
	)
	c := &cobra.Command{
		Use:   "daemon",
		Short: "Run the rotation scheduler in the foreground",
		Long: `Run the rotation scheduler in the foreground.

The daemon checks every tick_interval (default 1s) which sessions are due
and rotates them. It listens on socket_path so other tmux-rotate commands
reach it; without a daemon they edit the state directly and nothing
rotates until a daemon or 'tmux-rotate tick' runs.

Start it from tmux.conf with:
    run-shell -b "tmux-rotate daemon"`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			colors.Info("tmux-rotate daemon running (Ctrl+C to stop)")
			return runner.RunDaemon(c.Context(), app.DaemonOptions{
				Interval: interval,
				NoSocket: noSocket,
				NoPrune:  noPrune,
			})
		},
	}
	c.Flags().DurationVar(&interval, "interval", 0, "Heartbeat period (default: tick_interval)")
	c.Flags().BoolVar(&noSocket, "no-socket", false, "Do not listen for control commands")
	c.Flags().BoolVar(&noPrune, "no-prune", false, "Keep entries of sessions that no longer exist")
	return c
}

func init() {
	cmd.RootCmd.AddCommand(NewDaemonCmd(defaultApp))
}
