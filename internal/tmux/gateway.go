package tmux

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
)

// Gateway rotates the windows of a tmux session. It implements
// rotation.Gateway.
type Gateway struct {
	client Client
}

var _ rotation.Gateway = (*Gateway)(nil)

// NewGateway returns a Gateway that drives tmux through client.
func NewGateway(client Client) *Gateway {
	return &Gateway{client: client}
}

// RotateOnce activates the window after the active one in the session,
// wrapping to the first. It returns false without error when the session
// has no windows, no active window, or the next window has no id.
// When focusWindow is set the session is switched to before selecting; a
// failure there aborts the rotation. When refreshOnRotate is set the newly
// selected window is respawned.
func (g *Gateway) RotateOnce(ctx context.Context, sessionID int, focusWindow, refreshOnRotate bool) (bool, error) {
	target := FormatSessionID(sessionID)
	windows, err := g.client.ListWindows(ctx, target)
	if errors.Is(err, ErrSessionNotFound) {
		return false, fmt.Errorf("%w: %w", rotation.ErrSessionGone, err)
	}
	if err != nil {
		return false, err
	}
	if len(windows) == 0 {
		return false, nil
	}

	current := -1
	for i, w := range windows {
		if w.Active {
			current = i
			break
		}
	}
	if current < 0 {
		return false, nil
	}

	next := windows[(current+1)%len(windows)]
	if next.ID == "" {
		return false, nil
	}

	if focusWindow {
		if err := g.client.SwitchClient(ctx, target); err != nil {
			return false, fmt.Errorf("focus session %s: %w", target, err)
		}
	}
	if err := g.client.SelectWindow(ctx, next.ID); err != nil {
		return false, err
	}
	if refreshOnRotate {
		if err := g.client.RespawnWindow(ctx, next.ID); err != nil {
			return false, err
		}
	}
	return true, nil
}

// LiveSessions returns the numeric ids of every session on the server.
func LiveSessions(ctx context.Context, client Client) ([]int, error) {
	sessions, err := client.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(sessions))
	for raw := range sessions {
		id, err := ParseSessionID(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
