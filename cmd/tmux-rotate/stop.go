package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/tmux-rotate/cmd"
	"github.com/cristianoliveira/tmux-rotate/internal/colors"
	"github.com/cristianoliveira/tmux-rotate/internal/hooks"
	"github.com/cristianoliveira/tmux-rotate/internal/protocol"
)

// NewStopCmd creates the stop command with explicit dependencies.
func NewStopCmd(client rotateClient) *cobra.Command {
	if client == nil {
		panic("NewStopCmd: client dependency cannot be nil")
	}

	var session string
	c := &cobra.Command{
		Use:   "stop",
		Short: "Stop rotating a session",
		Long:  `Stop rotating a session. Its settings are kept for the next start.`,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			id, err := resolveSession(ctx, client, session)
			if err != nil {
				return err
			}
			if _, err := protocol.Call(ctx, client, protocol.Request{
				Type:     protocol.TypeStopRotation,
				WindowID: protocol.Window(id),
			}); err != nil {
				return err
			}
			colors.Success(fmt.Sprintf("Rotation stopped for session $%d", id))
			return client.RunHook(ctx, hooks.PostStop, sessionEnv(id))
		},
	}
	c.Flags().StringVarP(&session, "session", "s", "", "Session id (default: current session)")
	return c
}

func init() {
	cmd.RootCmd.AddCommand(NewStopCmd(defaultApp))
}
