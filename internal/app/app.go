// Package app wires configuration, storage, tmux and the rotation engine
// together for the CLI commands and the daemon.
package app

import (
	"context"
	"fmt"

	"github.com/cristianoliveira/tmux-rotate/internal/config"
	"github.com/cristianoliveira/tmux-rotate/internal/hooks"
	"github.com/cristianoliveira/tmux-rotate/internal/logging"
	"github.com/cristianoliveira/tmux-rotate/internal/protocol"
	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
	"github.com/cristianoliveira/tmux-rotate/internal/storage"
	"github.com/cristianoliveira/tmux-rotate/internal/tmux"
)

// Options overrides the collaborators New would build from configuration.
type Options struct {
	Store      rotation.Store
	Tmux       tmux.Client
	Logger     logging.Logger
	Hooks      *hooks.Runner
	SocketPath string
}

// App holds the collaborators shared by every command.
type App struct {
	Store      rotation.Store
	Tmux       tmux.Client
	Engine     *rotation.Engine
	Handler    *protocol.Handler
	Hooks      *hooks.Runner
	Logger     logging.Logger
	SocketPath string

	ownsStore bool
}

// New builds an App from the loaded configuration and opts.
func New(opts Options) (*App, error) {
	a := &App{
		Store:      opts.Store,
		Tmux:       opts.Tmux,
		Logger:     opts.Logger,
		Hooks:      opts.Hooks,
		SocketPath: opts.SocketPath,
	}
	if a.Logger == nil {
		a.Logger = logging.GetGlobal()
	}
	if a.Hooks == nil {
		a.Hooks = hooks.FromConfig(a.Logger.With("component", "hooks"))
	}
	if a.SocketPath == "" {
		a.SocketPath = config.Get("socket_path", "")
	}
	if a.Tmux == nil {
		a.Tmux = tmux.NewDefaultClient(
			tmux.WithSocketPath(config.Get("tmux_socket", "")),
			tmux.WithTimeout(config.GetDuration("tmux_timeout", tmux.DefaultTimeout)),
		)
	}
	if a.Store == nil {
		store, err := storage.NewFromConfig()
		if err != nil {
			return nil, fmt.Errorf("open state store: %w", err)
		}
		a.Store = store
		a.ownsStore = true
	}

	a.Engine = rotation.NewEngine(a.Store, tmux.NewGateway(a.Tmux),
		rotation.WithLogger(a.Logger.With("component", "engine")))
	a.Handler = protocol.NewHandler(a.Engine,
		protocol.WithCurrentWindow(a.CurrentSession),
		protocol.WithHandlerLogger(a.Logger.With("component", "handler")))
	return a, nil
}

// RunHook runs the scripts of a hook point and waits for async ones, so a
// short-lived command does not exit before they finish.
func (a *App) RunHook(ctx context.Context, point string, env map[string]string) error {
	defer a.Hooks.Wait()
	return a.Hooks.Run(ctx, point, env)
}

// WatchState notifies whenever the persisted table changes. It fails with
// storage.ErrNotWatchable for stores without a backing file.
func (a *App) WatchState(ctx context.Context) (<-chan struct{}, error) {
	return storage.Watch(ctx, storage.PathOf(a.Store), storage.DefaultWatchGap)
}

// Close releases the store when New opened it.
func (a *App) Close() error {
	if !a.ownsStore {
		return nil
	}
	return storage.Close(a.Store)
}

// CurrentSession returns the numeric id of the session the calling tmux
// client is attached to.
func (a *App) CurrentSession(ctx context.Context) (int, error) {
	raw, err := a.Tmux.CurrentSession(ctx)
	if err != nil {
		return 0, err
	}
	return tmux.ParseSessionID(raw)
}

// Doer returns the daemon client when a daemon answers on the socket, and
// the in-process handler otherwise. Both operate on the same store.
func (a *App) Doer(ctx context.Context) protocol.Doer {
	if a.SocketPath != "" {
		client := protocol.NewClient(a.SocketPath)
		if client.Ping(ctx) {
			a.Logger.Debug("using daemon", "socket", a.SocketPath)
			return client
		}
	}
	a.Logger.Debug("daemon unreachable, handling request in process")
	return a.Handler
}

// Prune forgets sessions that no longer exist on the tmux server. It does
// nothing when the server cannot be reached, so a wrong socket never wipes
// the table.
func (a *App) Prune(ctx context.Context) error {
	if ok, _ := a.Tmux.HasSession(ctx); !ok {
		a.Logger.Debug("tmux not reachable, skipping prune")
		return nil
	}
	alive, err := tmux.LiveSessions(ctx, a.Tmux)
	if err != nil {
		return err
	}
	_, err = a.Engine.Prune(ctx, alive)
	return err
}
