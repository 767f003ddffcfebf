package main

import (
	"github.com/spf13/cobra"

	"github.com/cristianoliveira/tmux-rotate/cmd"
	"github.com/cristianoliveira/tmux-rotate/internal/colors"
	"github.com/cristianoliveira/tmux-rotate/internal/protocol"
	"github.com/cristianoliveira/tmux-rotate/internal/tmux"
)

// NewClosedCmd creates the closed command with explicit dependencies.
func NewClosedCmd(client rotateClient) *cobra.Command {
	if client == nil {
		panic("NewClosedCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "closed <session-id>",
		Short: "Forget a session that was closed",
		Long: `Forget a session that was closed.

Called by the tmux session-closed hook (see install-hook) with the id of
the closed session, e.g. "$3".`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := tmux.ParseSessionID(args[0])
			if err != nil {
				return err
			}
			if _, err := protocol.Call(c.Context(), client, protocol.Request{
				Type:     protocol.TypeWindowClosed,
				WindowID: protocol.Window(id),
			}); err != nil {
				return err
			}
			colors.Debug("forgot session", args[0])
			return nil
		},
	}
}

func init() {
	cmd.RootCmd.AddCommand(NewClosedCmd(defaultApp))
}
