// Package cmd holds the root command that every tmux-rotate subcommand
// attaches to.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/tmux-rotate/internal/colors"
	"github.com/cristianoliveira/tmux-rotate/internal/config"
	"github.com/cristianoliveira/tmux-rotate/internal/logging"
	"github.com/cristianoliveira/tmux-rotate/internal/version"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:           "tmux-rotate",
	Short:         "Cycle through the windows of a tmux session on a timer.",
	Long:          `Cycle through the windows of a tmux session on a timer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		return Setup(c.Name())
	},
	PersistentPostRun: func(c *cobra.Command, args []string) {
		_ = logging.ShutdownGlobal()
	},
}

// Setup loads configuration and starts logging for the named command.
func Setup(command string) error {
	config.Load()
	colors.SetDebug(config.GetBool("debug", false))
	colors.SetQuiet(config.GetBool("quiet", false))

	if err := logging.InitGlobal(); err != nil {
		colors.Warning(fmt.Sprintf("file logging disabled: %v", err))
		return nil
	}
	logging.GetGlobal().Debug("command started", "command", command)
	return nil
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.Version = version.String()

	// Hide the completion command
	RootCmd.CompletionOptions.HiddenDefaultCmd = true

	RootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != RootCmd {
			fmt.Fprintln(cmd.OutOrStdout(), cmd.Long)
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprint(cmd.OutOrStdout(), cmd.UsageString())
			return
		}
		printHelpText(cmd)
	})
}

// commandOrder is the order commands appear in the help text.
var commandOrder = []string{
	"start",
	"stop",
	"focus",
	"refresh",
	"status",
	"popup",
	"daemon",
	"tick",
	"closed",
	"install-hook",
	"version",
}

func printHelpText(cmd *cobra.Command) {
	var cmdLines []string
	for _, name := range commandOrder {
		var found *cobra.Command
		for _, c := range cmd.Commands() {
			if c.Name() == name {
				found = c
				break
			}
		}
		if found == nil {
			continue
		}
		cmdLines = append(cmdLines, fmt.Sprintf("    %-24s %s", found.Use, found.Short))
	}

	helpText := fmt.Sprintf(`tmux-rotate v%s

Cycle through the windows of a tmux session on a timer.

USAGE:
    %s [COMMAND] [OPTIONS]

COMMANDS:
%s

OPTIONS:
    -h, --help      Show help message
`, version.String(), filepath.Base(os.Args[0]), strings.Join(cmdLines, "\n"))
	fmt.Fprint(cmd.OutOrStdout(), helpText)
}
