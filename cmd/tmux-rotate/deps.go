package main

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/cristianoliveira/tmux-rotate/internal/app"
	"github.com/cristianoliveira/tmux-rotate/internal/protocol"
	"github.com/cristianoliveira/tmux-rotate/internal/tmux"
)

// rotateClient is what the rotation commands need.
type rotateClient interface {
	Do(ctx context.Context, req protocol.Request) (protocol.Response, error)
	CurrentSession(ctx context.Context) (int, error)
	RunHook(ctx context.Context, point string, env map[string]string) error
}

// newApp builds the application. Can be changed for testing.
var newApp = func() (*app.App, error) {
	return app.New(app.Options{})
}

// lazyApp builds the App on first use, after the root command loaded the
// configuration.
type lazyApp struct {
	once sync.Once
	app  *app.App
	err  error
}

func (l *lazyApp) get() (*app.App, error) {
	l.once.Do(func() {
		l.app, l.err = newApp()
	})
	return l.app, l.err
}

func (l *lazyApp) Do(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	a, err := l.get()
	if err != nil {
		return protocol.Response{}, err
	}
	return a.Doer(ctx).Do(ctx, req)
}

func (l *lazyApp) CurrentSession(ctx context.Context) (int, error) {
	a, err := l.get()
	if err != nil {
		return 0, err
	}
	return a.CurrentSession(ctx)
}

func (l *lazyApp) RunHook(ctx context.Context, point string, env map[string]string) error {
	a, err := l.get()
	if err != nil {
		return err
	}
	return a.RunHook(ctx, point, env)
}

func (l *lazyApp) WatchState(ctx context.Context) (<-chan struct{}, error) {
	a, err := l.get()
	if err != nil {
		return nil, err
	}
	return a.WatchState(ctx)
}

func (l *lazyApp) RunDaemon(ctx context.Context, opts app.DaemonOptions) error {
	a, err := l.get()
	if err != nil {
		return err
	}
	return a.RunDaemon(ctx, opts)
}

func (l *lazyApp) SetHook(ctx context.Context, name, command string) error {
	a, err := l.get()
	if err != nil {
		return err
	}
	return a.Tmux.SetHook(ctx, name, command)
}

// stateWatcher is implemented by clients that can report table changes.
type stateWatcher interface {
	WatchState(ctx context.Context) (<-chan struct{}, error)
}

var defaultApp = &lazyApp{}

// sessionEnv is the hook environment for a session command.
func sessionEnv(id int) map[string]string {
	return map[string]string{"SESSION_ID": strconv.Itoa(id)}
}

// resolveSession parses --session, falling back to the caller's session.
func resolveSession(ctx context.Context, client rotateClient, flag string) (int, error) {
	if flag != "" {
		return tmux.ParseSessionID(flag)
	}
	id, err := client.CurrentSession(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", protocol.ErrMissingWindow, err)
	}
	return id, nil
}
