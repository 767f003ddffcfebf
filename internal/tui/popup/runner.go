package popup

import tea "github.com/charmbracelet/bubbletea"

// ProgramRunner runs a bubbletea program. Tests substitute it.
type ProgramRunner interface {
	Run(model tea.Model) error
}

// DefaultProgramRunner runs the popup on the alternate screen, which suits
// a `tmux display-popup -E tmux-rotate popup` invocation.
type DefaultProgramRunner struct{}

// NewDefaultProgramRunner creates a new DefaultProgramRunner.
func NewDefaultProgramRunner() *DefaultProgramRunner {
	return &DefaultProgramRunner{}
}

// Run starts a bubbletea program with the given model.
func (r *DefaultProgramRunner) Run(model tea.Model) error {
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
