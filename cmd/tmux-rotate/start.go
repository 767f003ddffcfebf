package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/tmux-rotate/cmd"
	"github.com/cristianoliveira/tmux-rotate/internal/colors"
	"github.com/cristianoliveira/tmux-rotate/internal/config"
	"github.com/cristianoliveira/tmux-rotate/internal/hooks"
	"github.com/cristianoliveira/tmux-rotate/internal/protocol"
	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
)

// NewStartCmd creates the start command with explicit dependencies.
func NewStartCmd(client rotateClient) *cobra.Command {
	if client == nil {
		panic("NewStartCmd: client dependency cannot be nil")
	}

	var (
		session  string
		interval int
		focus    bool
		refresh  bool
	)

	c := &cobra.Command{
		Use:   "start",
		Short: "Start rotating the windows of a session",
		Long: `Start rotating the windows of a session.

Every interval the next window of the session becomes active, wrapping
around after the last one. Intervals below 5 seconds are raised to 5.
Running start again on a rotating session updates its settings without
restarting the schedule.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			id, err := resolveSession(ctx, client, session)
			if err != nil {
				return err
			}
			if !c.Flags().Changed("interval") {
				interval = config.GetInt("default_interval", rotation.DefaultIntervalSec)
			}
			resp, err := protocol.Call(ctx, client, protocol.Request{
				Type:            protocol.TypeStartRotation,
				WindowID:        protocol.Window(id),
				IntervalSec:     interval,
				FocusWindow:     focus,
				RefreshOnRotate: refresh,
			})
			if err != nil {
				return err
			}
			effective := interval
			if resp.Config != nil {
				effective = resp.Config.IntervalSec
			}
			colors.Success(fmt.Sprintf("Rotating session $%d every %ds", id, effective))
			env := sessionEnv(id)
			env["INTERVAL_SEC"] = strconv.Itoa(effective)
			return client.RunHook(ctx, hooks.PostStart, env)
		},
	}

	c.Flags().StringVarP(&session, "session", "s", "", "Session id (default: current session)")
	c.Flags().IntVarP(&interval, "interval", "i", rotation.DefaultIntervalSec, "Seconds between rotations (min 5)")
	c.Flags().BoolVar(&focus, "focus", false, "Switch the client to the session before each rotation")
	c.Flags().BoolVar(&refresh, "refresh", false, "Respawn the newly active window after each rotation")
	return c
}

func init() {
	cmd.RootCmd.AddCommand(NewStartCmd(defaultApp))
}
