package popup

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cristianoliveira/tmux-rotate/internal/errors"
	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(20)
	onStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	offStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// View renders the popup.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("tmux-rotate"))
	b.WriteString("\n\n")

	if !m.loaded {
		b.WriteString(offStyle.Render("Loading..."))
	} else {
		enabled := m.cfg != nil && m.cfg.Enabled
		row(&b, "Session ID", fmt.Sprintf("$%d", m.session))
		row(&b, "Rotation", flag(enabled, "ON", "OFF"))
		row(&b, "Interval (s)", m.interval.View()+helpStyle.Render(fmt.Sprintf(" min %d", rotation.MinIntervalSec)))
		row(&b, "Focus session", flag(m.focus, "yes", "no"))
		row(&b, "Refresh on rotate", flag(m.refresh, "yes", "no"))
	}

	if msg, ok := m.messages.Latest(); ok {
		b.WriteString("\n")
		if msg.Type == errors.MessageTypeError {
			b.WriteString(errorStyle.Render(msg.Text))
		} else {
			b.WriteString(okStyle.Render(msg.Text))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.editing {
		b.WriteString(helpStyle.Render("type seconds • enter done"))
	} else {
		b.WriteString(helpStyle.Render("s start • x stop • i interval • f focus • r refresh • q quit"))
	}
	return boxStyle.Render(b.String())
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label + ":"))
	b.WriteString(value)
	b.WriteString("\n")
}

func flag(v bool, on, off string) string {
	if v {
		return onStyle.Render(on)
	}
	return offStyle.Render(off)
}
