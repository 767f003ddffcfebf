package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/tmux-rotate/cmd"
	"github.com/cristianoliveira/tmux-rotate/internal/colors"
	"github.com/cristianoliveira/tmux-rotate/internal/protocol"
)

// parseOnOff accepts on/off style arguments.
func parseOnOff(arg string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", arg)
	}
}

// newFlagCmd builds a command that sets one boolean rotation setting.
func newFlagCmd(client rotateClient, use, short, label string, typ protocol.RequestType) *cobra.Command {
	var session string
	c := &cobra.Command{
		Use:       use + " on|off",
		Short:     short,
		Long:      short + ". Sessions that were never started are left untouched.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(c *cobra.Command, args []string) error {
			enabled, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			ctx := c.Context()
			id, err := resolveSession(ctx, client, session)
			if err != nil {
				return err
			}
			req := protocol.Request{Type: typ, WindowID: protocol.Window(id)}
			switch typ {
			case protocol.TypeSetFocus:
				req.FocusWindow = enabled
			case protocol.TypeSetRefreshOnRotate:
				req.RefreshOnRotate = enabled
			}
			if _, err := protocol.Call(ctx, client, req); err != nil {
				return err
			}
			state := "off"
			if enabled {
				state = "on"
			}
			colors.Success(fmt.Sprintf("%s %s for session $%d", label, state, id))
			return nil
		},
	}
	c.Flags().StringVarP(&session, "session", "s", "", "Session id (default: current session)")
	return c
}

// NewFocusCmd creates the focus command with explicit dependencies.
func NewFocusCmd(client rotateClient) *cobra.Command {
	if client == nil {
		panic("NewFocusCmd: client dependency cannot be nil")
	}
	return newFlagCmd(client, "focus", "Switch to the session before each rotation", "Focus", protocol.TypeSetFocus)
}

// NewRefreshCmd creates the refresh command with explicit dependencies.
func NewRefreshCmd(client rotateClient) *cobra.Command {
	if client == nil {
		panic("NewRefreshCmd: client dependency cannot be nil")
	}
	return newFlagCmd(client, "refresh", "Respawn the newly active window after each rotation", "Refresh", protocol.TypeSetRefreshOnRotate)
}

func init() {
	cmd.RootCmd.AddCommand(NewFocusCmd(defaultApp))
	cmd.RootCmd.AddCommand(NewRefreshCmd(defaultApp))
}
