package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/tmux-rotate/cmd"
	"github.com/cristianoliveira/tmux-rotate/internal/colors"
)

// sessionClosedHook is the tmux hook that reports closed sessions.
const sessionClosedHook = "session-closed"

type hookInstaller interface {
	SetHook(ctx context.Context, name, command string) error
}

// executablePath returns the path of the running binary. Can be changed for testing.
var executablePath = os.Executable

// hookCommand is the tmux command run when a session closes.
func hookCommand(exe string) string {
	return fmt.Sprintf(`run-shell -b "'%s' closed '#{hook_session}'"`, exe)
}

// NewInstallHookCmd creates the install-hook command with explicit dependencies.
func NewInstallHookCmd(installer hookInstaller) *cobra.Command {
	if installer == nil {
		panic("NewInstallHookCmd: installer dependency cannot be nil")
	}

	var printOnly bool
	c := &cobra.Command{
		Use:   "install-hook",
		Short: "Forget sessions automatically when they close",
		Long: `Install a global tmux session-closed hook that runs
'tmux-rotate closed <id>' so closed sessions are removed from the state.

Use --print to show the tmux.conf line instead.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			exe, err := executablePath()
			if err != nil {
				return fmt.Errorf("locate tmux-rotate binary: %w", err)
			}
			command := hookCommand(exe)
			if printOnly {
				fmt.Fprintf(c.OutOrStdout(), "set-hook -g %s %s\n", sessionClosedHook, strconv.Quote(command))
				return nil
			}
			if err := installer.SetHook(c.Context(), sessionClosedHook, command); err != nil {
				return err
			}
			colors.Success("Installed tmux " + sessionClosedHook + " hook")
			return nil
		},
	}
	c.Flags().BoolVar(&printOnly, "print", false, "Print the tmux.conf line instead of installing")
	return c
}

func init() {
	cmd.RootCmd.AddCommand(NewInstallHookCmd(defaultApp))
}
