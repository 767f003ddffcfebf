package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/tmux-rotate/cmd"
	"github.com/cristianoliveira/tmux-rotate/internal/version"
)

type versionClient interface {
	Version() string
}

type buildVersion struct{}

func (buildVersion) Version() string { return version.Detailed() }

// NewVersionCmd creates the version command with explicit dependencies.
func NewVersionCmd(client versionClient) *cobra.Command {
	if client == nil {
		panic("NewVersionCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show the current version of tmux-rotate.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), client.Version())
			return nil
		},
	}
}

func init() {
	cmd.RootCmd.AddCommand(NewVersionCmd(buildVersion{}))
}
