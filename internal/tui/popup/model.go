// Package popup is the interactive control panel for one session's
// rotation: it shows the current settings and starts, stops or adjusts
// rotation with single keys.
package popup

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cristianoliveira/tmux-rotate/internal/errors"
	"github.com/cristianoliveira/tmux-rotate/internal/protocol"
	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
)

const requestTimeout = 5 * time.Second

// stateMsg carries a freshly loaded session entry.
type stateMsg struct {
	cfg *rotation.Config
	err error
}

// changedMsg signals that the persisted table changed outside the popup.
type changedMsg struct{}

// actionMsg reports the outcome of a start, stop or toggle.
type actionMsg struct {
	text string
	err  error
}

// Model is the bubbletea model of the popup.
type Model struct {
	doer     protocol.Doer
	session  int
	messages *errors.TUIHandler

	cfg      *rotation.Config
	loaded   bool
	focus    bool
	refresh  bool
	interval textinput.Model
	editing  bool
	quitting bool
	changes  <-chan struct{}
}

// NewModel creates the popup for session, sending requests through doer.
func NewModel(doer protocol.Doer, session int) *Model {
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 5
	input.Width = 6
	input.Placeholder = strconv.Itoa(rotation.DefaultIntervalSec)
	input.Validate = func(s string) error {
		if s == "" {
			return nil
		}
		_, err := strconv.Atoi(s)
		return err
	}
	input.SetValue(strconv.Itoa(rotation.DefaultIntervalSec))

	return &Model{
		doer:     doer,
		session:  session,
		messages: errors.NewTUIHandler(nil),
		interval: input,
	}
}

// WithChanges makes the popup reload whenever changes fires, so rotations
// and commands from other clients show up while it is open.
func (m *Model) WithChanges(changes <-chan struct{}) *Model {
	m.changes = changes
	return m
}

// Init loads the session state.
func (m *Model) Init() tea.Cmd {
	if m.changes == nil {
		return m.loadState()
	}
	return tea.Batch(m.loadState(), m.waitForChange())
}

func (m *Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	changes := m.changes
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}

// Update handles messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		return m.handleState(msg)
	case changedMsg:
		return m, tea.Batch(m.loadState(), m.waitForChange())
	case actionMsg:
		if msg.err != nil {
			m.messages.Error(msg.err.Error())
			return m, nil
		}
		m.messages.Success(msg.text)
		return m, m.loadState()
	case tea.KeyMsg:
		if m.editing {
			return m.handleEditKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleState(msg stateMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.messages.Error(msg.err.Error())
		return m, nil
	}
	m.cfg = msg.cfg
	m.loaded = true
	if m.cfg != nil {
		m.focus = m.cfg.FocusWindow
		m.refresh = m.cfg.RefreshOnRotate
		if !m.editing {
			m.interval.SetValue(strconv.Itoa(m.cfg.IntervalSec))
		}
	}
	return m, nil
}

func (m *Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc, tea.KeyTab:
		m.editing = false
		m.interval.Blur()
		return m, nil
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.interval, cmd = m.interval.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "i", "tab":
		m.editing = true
		return m, m.interval.Focus()
	case "s":
		return m, m.start()
	case "x":
		return m, m.stop()
	case "f":
		m.focus = !m.focus
		return m, m.send(protocol.Request{Type: protocol.TypeSetFocus, FocusWindow: m.focus},
			"Focus "+onOff(m.focus))
	case "r":
		m.refresh = !m.refresh
		return m, m.send(protocol.Request{Type: protocol.TypeSetRefreshOnRotate, RefreshOnRotate: m.refresh},
			"Refresh "+onOff(m.refresh))
	}
	return m, nil
}

// intervalValue parses the input, defaulting blanks to the default interval
// and raising small values to the minimum. The input shows the result.
func (m *Model) intervalValue() int {
	sec, err := strconv.Atoi(strings.TrimSpace(m.interval.Value()))
	if err != nil || sec == 0 {
		sec = rotation.DefaultIntervalSec
	}
	sec = rotation.ClampInterval(sec)
	m.interval.SetValue(strconv.Itoa(sec))
	return sec
}

func (m *Model) start() tea.Cmd {
	sec := m.intervalValue()
	return m.send(protocol.Request{
		Type:            protocol.TypeStartRotation,
		IntervalSec:     sec,
		FocusWindow:     m.focus,
		RefreshOnRotate: m.refresh,
	}, fmt.Sprintf("Rotating every %ds", sec))
}

func (m *Model) stop() tea.Cmd {
	return m.send(protocol.Request{Type: protocol.TypeStopRotation}, "Rotation stopped")
}

func (m *Model) send(req protocol.Request, success string) tea.Cmd {
	req.WindowID = protocol.Window(m.session)
	doer := m.doer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if _, err := protocol.Call(ctx, doer, req); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: success}
	}
}

func (m *Model) loadState() tea.Cmd {
	req := protocol.Request{Type: protocol.TypeGetState, WindowID: protocol.Window(m.session)}
	doer := m.doer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := protocol.Call(ctx, doer, req)
		if err != nil {
			return stateMsg{err: err}
		}
		return stateMsg{cfg: resp.Config}
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
