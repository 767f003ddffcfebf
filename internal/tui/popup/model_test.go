package popup

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/tmux-rotate/internal/errors"
	"github.com/cristianoliveira/tmux-rotate/internal/protocol"
	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
)

func newTestModel(t *testing.T, initial rotation.Table) (*Model, *rotation.Engine) {
	t.Helper()
	store := rotation.NewMemoryStore(initial)
	gateway := rotation.GatewayFunc(func(context.Context, int, bool, bool) (bool, error) { return true, nil })
	engine := rotation.NewEngine(store, gateway, rotation.WithClock(func() time.Time { return time.UnixMilli(50_000) }))
	m := NewModel(protocol.NewHandler(engine), 3)
	return m, engine
}

// drive runs cmd and feeds its message back into the model, following the
// chain an action triggers.
func drive(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil && i < 5; i++ {
		msg := cmd()
		_, cmd = m.Update(msg)
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInitLoadsState(t *testing.T) {
	m, _ := newTestModel(t, rotation.Table{3: {Enabled: true, IntervalSec: 30, FocusWindow: true}})

	drive(t, m, m.Init())

	require.True(t, m.loaded)
	require.NotNil(t, m.cfg)
	assert.True(t, m.focus)
	assert.False(t, m.refresh)
	assert.Equal(t, "30", m.interval.Value())
	view := m.View()
	assert.Contains(t, view, "$3")
	assert.Contains(t, view, "ON")
}

func TestInitWithoutEntryShowsDefaults(t *testing.T) {
	m, _ := newTestModel(t, nil)

	drive(t, m, m.Init())

	assert.True(t, m.loaded)
	assert.Nil(t, m.cfg)
	assert.Equal(t, "10", m.interval.Value())
	assert.Contains(t, m.View(), "OFF")
}

func TestStartClampsInterval(t *testing.T) {
	m, engine := newTestModel(t, nil)
	drive(t, m, m.Init())
	m.interval.SetValue("2")

	_, cmd := m.Update(key("s"))
	drive(t, m, cmd)

	assert.Equal(t, "5", m.interval.Value())
	cfg, err := engine.State(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 5, cfg.IntervalSec)
	latest, ok := m.messages.Latest()
	require.True(t, ok)
	assert.Equal(t, errors.MessageTypeSuccess, latest.Type)
}

func TestStopAndToggles(t *testing.T) {
	m, engine := newTestModel(t, rotation.Table{3: {Enabled: true, IntervalSec: 10}})
	drive(t, m, m.Init())

	_, cmd := m.Update(key("f"))
	drive(t, m, cmd)
	_, cmd = m.Update(key("r"))
	drive(t, m, cmd)
	_, cmd = m.Update(key("x"))
	drive(t, m, cmd)

	cfg, err := engine.State(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.True(t, cfg.FocusWindow)
	assert.True(t, cfg.RefreshOnRotate)
	assert.True(t, m.focus)
	assert.True(t, m.refresh)
}

func TestEditInterval(t *testing.T) {
	m, _ := newTestModel(t, nil)
	drive(t, m, m.Init())

	m.Update(key("i"))
	require.True(t, m.editing)
	m.interval.SetValue("")
	m.Update(key("4"))
	m.Update(key("5"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.editing)
	assert.Equal(t, "45", m.interval.Value())
	assert.Equal(t, 45, m.intervalValue())
}

func TestBlankIntervalUsesDefault(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.interval.SetValue("")

	assert.Equal(t, rotation.DefaultIntervalSec, m.intervalValue())

	m.interval.SetValue("-3")
	assert.Equal(t, rotation.MinIntervalSec, m.intervalValue())
	assert.Equal(t, "5", m.interval.Value())
}

func TestActionErrorIsShown(t *testing.T) {
	m, _ := newTestModel(t, nil)

	m.Update(actionMsg{err: assert.AnError})

	latest, ok := m.messages.Latest()
	require.True(t, ok)
	assert.Equal(t, errors.MessageTypeError, latest.Type)
	assert.Contains(t, m.View(), assert.AnError.Error())
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, nil)

	_, cmd := m.Update(key("q"))

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestChangesReloadState(t *testing.T) {
	m, engine := newTestModel(t, rotation.Table{3: {Enabled: true, IntervalSec: 30}})
	changes := make(chan struct{}, 1)
	m.WithChanges(changes)
	drive(t, m, m.loadState())
	require.True(t, m.cfg.Enabled)

	require.NoError(t, engine.Stop(context.Background(), 3))
	changes <- struct{}{}
	msg := m.waitForChange()()
	require.IsType(t, changedMsg{}, msg)

	_, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	drive(t, m, m.loadState())
	assert.False(t, m.cfg.Enabled)

	close(changes)
	assert.Nil(t, m.waitForChange()())
}

func TestWaitForChangeWithoutWatcher(t *testing.T) {
	m, _ := newTestModel(t, nil)
	assert.Nil(t, m.waitForChange())
}
