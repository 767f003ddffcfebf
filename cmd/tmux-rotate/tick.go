package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/tmux-rotate/cmd"
	"github.com/cristianoliveira/tmux-rotate/internal/colors"
	"github.com/cristianoliveira/tmux-rotate/internal/protocol"
)

// NewTickCmd creates the tick command with explicit dependencies.
func NewTickCmd(client rotateClient) *cobra.Command {
	if client == nil {
		panic("NewTickCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "tick",
		Short: "Rotate every session that is due, once",
		Long: `Rotate every session that is due, once.

This is what the daemon runs every heartbeat. Without a daemon it can be
driven from cron or a tmux status-interval hook.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			resp, err := protocol.Call(c.Context(), client, protocol.Request{Type: protocol.TypeTick})
			if err != nil {
				return err
			}
			if resp.Tick == nil {
				return nil
			}
			colors.Debug(fmt.Sprintf("tick: rotated=%v idle=%v busy=%v", resp.Tick.Rotated, resp.Tick.Idle, resp.Tick.Busy))
			for _, id := range resp.Tick.Disabled {
				colors.Warning(fmt.Sprintf("rotation of session $%d failed and was stopped", id))
			}
			return nil
		},
	}
}

func init() {
	cmd.RootCmd.AddCommand(NewTickCmd(defaultApp))
}
