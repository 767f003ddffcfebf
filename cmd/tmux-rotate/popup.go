package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/tmux-rotate/cmd"
	"github.com/cristianoliveira/tmux-rotate/internal/colors"
	"github.com/cristianoliveira/tmux-rotate/internal/tui/popup"
)

// NewPopupCmd creates the popup command with explicit dependencies.
func NewPopupCmd(client rotateClient, runner popup.ProgramRunner) *cobra.Command {
	if client == nil {
		panic("NewPopupCmd: client dependency cannot be nil")
	}
	if runner == nil {
		panic("NewPopupCmd: runner dependency cannot be nil")
	}

	var session string
	c := &cobra.Command{
		Use:   "popup",
		Short: "Control rotation interactively",
		Long: `Open an interactive panel for the current session's rotation.

Bind it to a key in tmux.conf:
    bind-key R display-popup -E -w 50 -h 14 "tmux-rotate popup"`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			defer colors.MuteTraces()()

			ctx, cancel := context.WithCancel(c.Context())
			defer cancel()
			id, err := resolveSession(ctx, client, session)
			if err != nil {
				return err
			}
			model := popup.NewModel(client, id)
			if w, ok := client.(stateWatcher); ok {
				if changes, err := w.WatchState(ctx); err == nil {
					model = model.WithChanges(changes)
				}
			}
			return runner.Run(model)
		},
	}
	c.Flags().StringVarP(&session, "session", "s", "", "Session id (default: current session)")
	return c
}

func init() {
	cmd.RootCmd.AddCommand(NewPopupCmd(defaultApp, popup.NewDefaultProgramRunner()))
}
