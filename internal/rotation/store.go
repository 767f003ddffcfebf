package rotation

import (
	"context"
	"errors"
)

// ErrSessionGone can be returned by a Gateway when the target no longer
// exists. The engine treats it like any other rotation failure; the entry
// is removed later by the session-closed hook or the startup prune.
var ErrSessionGone = errors.New("session no longer exists")

// Store loads and saves the whole rotation table.
// Load returns an empty table when nothing was persisted yet.
type Store interface {
	Load(ctx context.Context) (Table, error)
	Save(ctx context.Context, table Table) error
}

// Gateway performs a single rotation of a session's active window.
// It returns false without error when there was nothing to rotate.
type Gateway interface {
	RotateOnce(ctx context.Context, sessionID int, focusWindow, refreshOnRotate bool) (bool, error)
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, sessionID int, focusWindow, refreshOnRotate bool) (bool, error)

// RotateOnce calls f.
func (f GatewayFunc) RotateOnce(ctx context.Context, sessionID int, focusWindow, refreshOnRotate bool) (bool, error) {
	return f(ctx, sessionID, focusWindow, refreshOnRotate)
}
