// Package protocol defines the requests understood by the rotation engine,
// the handler that dispatches them, and the newline-delimited JSON
// transport used between the CLI and the daemon.
package protocol

import (
	"errors"

	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
)

// RequestType names an engine operation.
type RequestType string

const (
	TypeGetState           RequestType = "get_state"
	TypeStartRotation      RequestType = "start_rotation"
	TypeStopRotation       RequestType = "stop_rotation"
	TypeSetFocus           RequestType = "set_focus"
	TypeSetRefreshOnRotate RequestType = "set_refresh_on_rotate"
	TypeTick               RequestType = "tick"
	TypeWindowClosed       RequestType = "window_closed"
	TypeList               RequestType = "list"
)

var (
	// ErrRequestFailed wraps the error text of a response with OK unset.
	ErrRequestFailed = errors.New("request failed")

	// ErrMissingWindow is returned for requests that need a session id.
	ErrMissingWindow = errors.New("windowId is required")
)

// Request is one message sent to the engine.
//
// WindowID may be omitted for get_state and start_rotation, in which case
// the handler resolves the current session.
type Request struct {
	ID              string      `json:"id,omitempty"`
	Type            RequestType `json:"type"`
	WindowID        *int        `json:"windowId,omitempty"`
	IntervalSec     int         `json:"intervalSec,omitempty"`
	FocusWindow     bool        `json:"focusWindow,omitempty"`
	RefreshOnRotate bool        `json:"refreshOnRotate,omitempty"`
}

// Response answers a Request with the same ID.
type Response struct {
	ID       string               `json:"id,omitempty"`
	OK       bool                 `json:"ok"`
	Error    string               `json:"error,omitempty"`
	WindowID *int                 `json:"windowId,omitempty"`
	Config   *rotation.Config     `json:"config"`
	Table    rotation.Table       `json:"table,omitempty"`
	Tick     *rotation.TickResult `json:"tick,omitempty"`
}

// Window returns a pointer to id for use in Request.WindowID.
func Window(id int) *int {
	return &id
}

func failure(req Request, msg string) Response {
	return Response{ID: req.ID, OK: false, Error: msg}
}
