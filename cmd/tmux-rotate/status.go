package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/tmux-rotate/cmd"
	"github.com/cristianoliveira/tmux-rotate/internal/app"
	"github.com/cristianoliveira/tmux-rotate/internal/config"
	"github.com/cristianoliveira/tmux-rotate/internal/protocol"
)

// NewStatusCmd creates the status command with explicit dependencies.
func NewStatusCmd(client rotateClient) *cobra.Command {
	if client == nil {
		panic("NewStatusCmd: client dependency cannot be nil")
	}

	var (
		session string
		all     bool
		format  string
	)
	c := &cobra.Command{
		Use:   "status",
		Short: "Show rotation settings",
		Long: `Show the rotation settings of the current session, or of every tracked
session with --all.

FORMATS:
    summary   Human readable (default)
    table     One row per session (with --all)
    json      Machine readable

The format can also be set with TMUX_ROTATE_STATUS_FORMAT.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			format = app.DetermineStatusFormat(format, os.Getenv(config.EnvPrefix+"STATUS_FORMAT"), c.Flags().Changed("format"))
			if err := app.ValidateStatusFormat(format); err != nil {
				return err
			}
			ctx := c.Context()
			if all {
				resp, err := protocol.Call(ctx, client, protocol.Request{Type: protocol.TypeList})
				if err != nil {
					return err
				}
				return app.WriteTableStatus(c.OutOrStdout(), format, resp.Table)
			}
			id, err := resolveSession(ctx, client, session)
			if err != nil {
				return err
			}
			resp, err := protocol.Call(ctx, client, protocol.Request{Type: protocol.TypeGetState, WindowID: protocol.Window(id)})
			if err != nil {
				return err
			}
			return app.WriteSessionStatus(c.OutOrStdout(), format, id, resp.Config)
		},
	}
	c.Flags().StringVarP(&session, "session", "s", "", "Session id (default: current session)")
	c.Flags().BoolVarP(&all, "all", "a", false, "Show every tracked session")
	c.Flags().StringVarP(&format, "format", "f", "summary", "Output format: summary, table, json")
	return c
}

func init() {
	cmd.RootCmd.AddCommand(NewStatusCmd(defaultApp))
}
