package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
)

// DefaultDialTimeout bounds a request round trip when ctx has no deadline.
const DefaultDialTimeout = 5 * time.Second

// Doer sends a request and returns the engine's response.
type Doer interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// Client talks to a daemon over its unix socket. One connection is used
// per request.
type Client struct {
	socketPath string
	timeout    time.Duration
}

var (
	_ Doer = (*Client)(nil)
	_ Doer = (*Handler)(nil)
)

// NewClient returns a Client for the socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: DefaultDialTimeout}
}

// Ping reports whether a daemon accepts connections on the socket.
func (c *Client) Ping(ctx context.Context) bool {
	var d net.Dialer
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Do sends req and waits for its response. A request without an ID is
// assigned a fresh uuid.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return Response{}, fmt.Errorf("dial daemon: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}
	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.ID != req.ID {
		return Response{}, fmt.Errorf("response id %q does not match request %q", resp.ID, req.ID)
	}
	return resp, nil
}

// Call sends req through d and turns a failed response into an error
// wrapping ErrRequestFailed.
func Call(ctx context.Context, d Doer, req Request) (Response, error) {
	resp, err := d.Do(ctx, req)
	if err != nil {
		return resp, err
	}
	if !resp.OK {
		return resp, fmt.Errorf("%w: %s", ErrRequestFailed, resp.Error)
	}
	return resp, nil
}
