package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/tmux-rotate/internal/app"
	"github.com/cristianoliveira/tmux-rotate/internal/colors"
	"github.com/cristianoliveira/tmux-rotate/internal/hooks"
	"github.com/cristianoliveira/tmux-rotate/internal/protocol"
	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
	"github.com/cristianoliveira/tmux-rotate/internal/tui/popup"
)

// fakeClient answers requests from an in-memory engine and records them.
type fakeClient struct {
	handler  *protocol.Handler
	engine   *rotation.Engine
	requests []protocol.Request
	current  int
	curErr   error
	hooks    []hookEvent
	hookErr  error
}

type hookEvent struct {
	point string
	env   map[string]string
}

func newFakeClient(initial rotation.Table) *fakeClient {
	engine := rotation.NewEngine(rotation.NewMemoryStore(initial),
		rotation.GatewayFunc(func(context.Context, int, bool, bool) (bool, error) { return true, nil }))
	return &fakeClient{handler: protocol.NewHandler(engine), engine: engine, current: 1}
}

func (f *fakeClient) Do(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	f.requests = append(f.requests, req)
	return f.handler.Handle(ctx, req), nil
}

func (f *fakeClient) CurrentSession(context.Context) (int, error) {
	return f.current, f.curErr
}

func (f *fakeClient) RunHook(_ context.Context, point string, env map[string]string) error {
	f.hooks = append(f.hooks, hookEvent{point: point, env: env})
	return f.hookErr
}

func execute(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	colors.SetOutput(&out, &out)
	t.Cleanup(func() { colors.SetOutput(os.Stdout, os.Stderr) })
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetArgs(args)
	err := c.Execute()
	return out.String(), err
}

func TestConstructorsPanicOnNilDependency(t *testing.T) {
	constructors := map[string]func(){
		"start":        func() { NewStartCmd(nil) },
		"stop":         func() { NewStopCmd(nil) },
		"focus":        func() { NewFocusCmd(nil) },
		"refresh":      func() { NewRefreshCmd(nil) },
		"status":       func() { NewStatusCmd(nil) },
		"tick":         func() { NewTickCmd(nil) },
		"closed":       func() { NewClosedCmd(nil) },
		"daemon":       func() { NewDaemonCmd(nil) },
		"install-hook": func() { NewInstallHookCmd(nil) },
		"version":      func() { NewVersionCmd(nil) },
		"popup":        func() { NewPopupCmd(nil, nil) },
	}
	for name, fn := range constructors {
		t.Run(name, func(t *testing.T) {
			assert.PanicsWithValue(t, "New"+panicName(name)+": "+dependencyName(name)+" dependency cannot be nil", fn)
		})
	}
}

func panicName(cmd string) string {
	parts := strings.Split(cmd, "-")
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "") + "Cmd"
}

func dependencyName(cmd string) string {
	switch cmd {
	case "daemon":
		return "runner"
	case "install-hook":
		return "installer"
	default:
		return "client"
	}
}

func TestStartUsesCurrentSession(t *testing.T) {
	client := newFakeClient(nil)
	client.current = 4

	out, err := execute(t, NewStartCmd(client), "--interval", "3", "--focus")

	require.NoError(t, err)
	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, protocol.TypeStartRotation, req.Type)
	assert.Equal(t, 4, *req.WindowID)
	assert.Equal(t, 3, req.IntervalSec)
	assert.True(t, req.FocusWindow)
	assert.Contains(t, out, "every 5s")
}

func TestStartExplicitSession(t *testing.T) {
	client := newFakeClient(nil)
	client.curErr = errors.New("not in tmux")

	_, err := execute(t, NewStartCmd(client), "--session", "$9", "--interval", "20")

	require.NoError(t, err)
	cfg, err := client.engine.State(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.IntervalSec)
}

func TestStartOutsideTmuxWithoutSession(t *testing.T) {
	client := newFakeClient(nil)
	client.curErr = errors.New("no current client")

	_, err := execute(t, NewStartCmd(client))

	assert.ErrorIs(t, err, protocol.ErrMissingWindow)
	assert.Empty(t, client.requests)
}

func TestStopAndFlags(t *testing.T) {
	client := newFakeClient(rotation.Table{1: {Enabled: true, IntervalSec: 10}})

	_, err := execute(t, NewFocusCmd(client), "on")
	require.NoError(t, err)
	_, err = execute(t, NewRefreshCmd(client), "yes")
	require.NoError(t, err)
	_, err = execute(t, NewStopCmd(client))
	require.NoError(t, err)

	cfg, err := client.engine.State(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.True(t, cfg.FocusWindow)
	assert.True(t, cfg.RefreshOnRotate)

	_, err = execute(t, NewFocusCmd(client), "maybe")
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	client := newFakeClient(rotation.Table{1: {Enabled: true, IntervalSec: 15}, 2: {IntervalSec: 5}})

	out, err := execute(t, NewStatusCmd(client))
	require.NoError(t, err)
	assert.Contains(t, out, "Session ID: $1")
	assert.Contains(t, out, "Interval: 15s")

	out, err = execute(t, NewStatusCmd(client), "--all", "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "$2")

	_, err = execute(t, NewStatusCmd(client), "--format", "xml")
	assert.Error(t, err)
}

func TestTickReportsDisabled(t *testing.T) {
	engine := rotation.NewEngine(rotation.NewMemoryStore(rotation.Table{6: {Enabled: true, IntervalSec: 5}}),
		rotation.GatewayFunc(func(context.Context, int, bool, bool) (bool, error) { return false, errors.New("gone") }))
	client := &fakeClient{handler: protocol.NewHandler(engine), engine: engine}

	out, err := execute(t, NewTickCmd(client))

	require.NoError(t, err)
	assert.Contains(t, out, "$6")
	cfg, err := engine.State(context.Background(), 6)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
}

func TestStartStopRunHooks(t *testing.T) {
	client := newFakeClient(nil)

	_, err := execute(t, NewStartCmd(client), "--session", "$4", "--interval", "12")
	require.NoError(t, err)
	_, err = execute(t, NewStopCmd(client), "--session", "$4")
	require.NoError(t, err)

	require.Len(t, client.hooks, 2)
	assert.Equal(t, hookEvent{point: hooks.PostStart, env: map[string]string{"SESSION_ID": "4", "INTERVAL_SEC": "12"}}, client.hooks[0])
	assert.Equal(t, hookEvent{point: hooks.PostStop, env: map[string]string{"SESSION_ID": "4"}}, client.hooks[1])
}

func TestStartReportsAbortingHook(t *testing.T) {
	client := newFakeClient(nil)
	client.hookErr = hooks.ErrHookFailed

	_, err := execute(t, NewStartCmd(client), "--session", "$4")
	assert.ErrorIs(t, err, hooks.ErrHookFailed)

	cfg, stateErr := client.engine.State(context.Background(), 4)
	require.NoError(t, stateErr)
	assert.True(t, cfg.Enabled)
}

func TestClosed(t *testing.T) {
	client := newFakeClient(rotation.Table{3: {Enabled: true, IntervalSec: 5}})

	_, err := execute(t, NewClosedCmd(client), "$3")
	require.NoError(t, err)

	table, err := client.engine.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, table)

	_, err = execute(t, NewClosedCmd(client), "@3")
	assert.Error(t, err)
}

type fakeRunner struct{ opts app.DaemonOptions }

func (f *fakeRunner) RunDaemon(_ context.Context, opts app.DaemonOptions) error {
	f.opts = opts
	return nil
}

func TestDaemonPassesFlags(t *testing.T) {
	runner := &fakeRunner{}

	_, err := execute(t, NewDaemonCmd(runner), "--interval", "2s", "--no-socket")

	require.NoError(t, err)
	assert.Equal(t, "2s", runner.opts.Interval.String())
	assert.True(t, runner.opts.NoSocket)
	assert.False(t, runner.opts.NoPrune)
}

type fakeInstaller struct{ name, command string }

func (f *fakeInstaller) SetHook(_ context.Context, name, command string) error {
	f.name, f.command = name, command
	return nil
}

func TestInstallHook(t *testing.T) {
	old := executablePath
	executablePath = func() (string, error) { return "/usr/bin/tmux-rotate", nil }
	t.Cleanup(func() { executablePath = old })
	installer := &fakeInstaller{}

	_, err := execute(t, NewInstallHookCmd(installer))
	require.NoError(t, err)
	assert.Equal(t, "session-closed", installer.name)
	assert.Equal(t, `run-shell -b "'/usr/bin/tmux-rotate' closed '#{hook_session}'"`, installer.command)

	out, err := execute(t, NewInstallHookCmd(&fakeInstaller{}), "--print")
	require.NoError(t, err)
	assert.Equal(t, `set-hook -g session-closed "run-shell -b \"'/usr/bin/tmux-rotate' closed '#{hook_session}'\""`+"\n", out)
}

type fixedVersion string

func (v fixedVersion) Version() string { return string(v) }

func TestVersion(t *testing.T) {
	out, err := execute(t, NewVersionCmd(fixedVersion("tmux-rotate 1.0.0")))

	require.NoError(t, err)
	assert.Equal(t, "tmux-rotate 1.0.0\n", out)
}

type fakeProgram struct{ model tea.Model }

func (f *fakeProgram) Run(model tea.Model) error {
	f.model = model
	return nil
}

var _ popup.ProgramRunner = (*fakeProgram)(nil)

func TestPopupRunsModelForSession(t *testing.T) {
	client := newFakeClient(nil)
	runner := &fakeProgram{}

	_, err := execute(t, NewPopupCmd(client, runner), "--session", "7")

	require.NoError(t, err)
	assert.IsType(t, &popup.Model{}, runner.model)
}

func TestRunExitCodes(t *testing.T) {
	var out bytes.Buffer
	colors.SetOutput(&out, &out)
	t.Cleanup(func() { colors.SetOutput(os.Stdout, os.Stderr) })

	assert.Equal(t, 0, run([]string{"status"}, func() error { return nil }))
	assert.Equal(t, 1, run([]string{"status"}, func() error { return protocol.ErrMissingWindow }))
	assert.Contains(t, out.String(), "--session")
}
