package protocol

import (
	"context"
	"fmt"

	"github.com/cristianoliveira/tmux-rotate/internal/logging"
	"github.com/cristianoliveira/tmux-rotate/internal/rotation"
)

// CurrentWindowFunc resolves the session a request without windowId refers to.
type CurrentWindowFunc func(ctx context.Context) (int, error)

// Handler dispatches requests to a rotation engine.
type Handler struct {
	engine  *rotation.Engine
	current CurrentWindowFunc
	logger  logging.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithCurrentWindow sets the resolver used when a request has no windowId.
func WithCurrentWindow(fn CurrentWindowFunc) HandlerOption {
	return func(h *Handler) {
		h.current = fn
	}
}

// WithHandlerLogger sets the handler logger.
func WithHandlerLogger(l logging.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = l
	}
}

// NewHandler returns a Handler for engine.
func NewHandler(engine *rotation.Engine, opts ...HandlerOption) *Handler {
	h := &Handler{engine: engine, logger: logging.Nop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Do implements Doer by handling req in process.
func (h *Handler) Do(ctx context.Context, req Request) (Response, error) {
	return h.Handle(ctx, req), nil
}

// Handle runs one request. It never panics; failures are reported in the
// response.
func (h *Handler) Handle(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("request panicked", "type", req.Type, "id", req.ID, "panic", r)
			resp = failure(req, fmt.Sprintf("internal error: %v", r))
		}
	}()

	h.logger.Debug("handling request", "type", req.Type, "id", req.ID)
	resp, err := h.dispatch(ctx, req)
	if err != nil {
		h.logger.Warn("request failed", "type", req.Type, "id", req.ID, "error", err)
		return failure(req, err.Error())
	}
	resp.ID = req.ID
	resp.OK = true
	return resp
}

func (h *Handler) dispatch(ctx context.Context, req Request) (Response, error) {
	switch req.Type {
	case TypeGetState:
		id, err := h.resolve(ctx, req)
		if err != nil {
			return Response{}, err
		}
		cfg, err := h.engine.State(ctx, id)
		if err != nil {
			return Response{}, err
		}
		return Response{WindowID: Window(id), Config: cfg}, nil

	case TypeStartRotation:
		id, err := h.resolve(ctx, req)
		if err != nil {
			return Response{}, err
		}
		interval := req.IntervalSec
		if interval == 0 {
			interval = rotation.DefaultIntervalSec
		}
		cfg, err := h.engine.Start(ctx, id, interval, req.FocusWindow, req.RefreshOnRotate)
		if err != nil {
			return Response{}, err
		}
		return Response{WindowID: Window(id), Config: cfg}, nil

	case TypeStopRotation:
		return h.withWindow(req, func(id int) error { return h.engine.Stop(ctx, id) })

	case TypeSetFocus:
		return h.withWindow(req, func(id int) error { return h.engine.SetFocus(ctx, id, req.FocusWindow) })

	case TypeSetRefreshOnRotate:
		return h.withWindow(req, func(id int) error {
			return h.engine.SetRefreshOnRotate(ctx, id, req.RefreshOnRotate)
		})

	case TypeWindowClosed:
		return h.withWindow(req, func(id int) error { return h.engine.WindowClosed(ctx, id) })

	case TypeTick:
		result, err := h.engine.Tick(ctx)
		if err != nil {
			return Response{}, err
		}
		return Response{Tick: &result}, nil

	case TypeList:
		table, err := h.engine.List(ctx)
		if err != nil {
			return Response{}, err
		}
		return Response{Table: table}, nil

	default:
		return Response{}, fmt.Errorf("unrecognized request: %s", req.Type)
	}
}

func (h *Handler) resolve(ctx context.Context, req Request) (int, error) {
	if req.WindowID != nil {
		return *req.WindowID, nil
	}
	if h.current == nil {
		return 0, ErrMissingWindow
	}
	id, err := h.current(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve current session: %w", err)
	}
	return id, nil
}

func (h *Handler) withWindow(req Request, fn func(int) error) (Response, error) {
	if req.WindowID == nil {
		return Response{}, ErrMissingWindow
	}
	if err := fn(*req.WindowID); err != nil {
		return Response{}, err
	}
	return Response{WindowID: Window(*req.WindowID)}, nil
}
