package main

import (
	"os"

	"github.com/cristianoliveira/tmux-rotate/cmd"
	"github.com/cristianoliveira/tmux-rotate/internal/colors"
	clierrors "github.com/cristianoliveira/tmux-rotate/internal/errors"
)

func main() {
	os.Exit(run(os.Args[1:], cmd.Execute))
}

// run executes the CLI and returns the process exit code. Traces are muted
// for the popup so they never draw over it.
func run(args []string, execute func() error) int {
	if len(args) > 0 && args[0] == "popup" {
		defer colors.MuteTraces()()
	}

	span := colors.Begin("cli", "run", "args", args)
	err := execute()
	span.End(err)
	if err != nil {
		clierrors.Report(clierrors.NewDefaultCLIHandler(), err)
		return 1
	}
	return 0
}
