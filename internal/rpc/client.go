package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dmagro/gavel/internal/endpoint"
)

// State is the lifecycle position of a Client.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateRequestInFlight
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateRequestInFlight:
		return "request in flight"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// closeGrace bounds the best-effort close frame written on shutdown.
const closeGrace = 250 * time.Millisecond

// Options configure Dial.
type Options struct {
	ConnectTimeout     time.Duration // dial + TLS + upgrade
	RequestTimeout     time.Duration // per call, 0 = only the caller's context
	InsecureSkipVerify bool
	Logger             *slog.Logger
}

// Client owns a single websocket connection to a node and issues JSON-RPC
// calls over it, one at a time.
type Client struct {
	conn           *websocket.Conn
	endpoint       string
	requestTimeout time.Duration
	logger         *slog.Logger
	newID          func() string

	mu        sync.Mutex // serializes calls; at most one request in flight
	state     atomic.Int32
	closeOnce sync.Once

	latMu     sync.Mutex
	latencies []time.Duration
}

// Dial connects to ep and performs the websocket handshake. There is no
// retry: any failure is returned as ErrConnection.
func Dial(ctx context.Context, ep *endpoint.Endpoint, opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		endpoint:       ep.String(),
		requestTimeout: opts.RequestTimeout,
		logger:         logger.With("endpoint", ep.String()),
		newID:          func() string { return uuid.NewString() },
	}
	c.setState(StateConnecting)

	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}

	dialer := ep.Dialer(endpoint.DialOptions{
		HandshakeTimeout:   opts.ConnectTimeout,
		InsecureSkipVerify: opts.InsecureSkipVerify,
	})

	c.logger.Debug("Connecting", "target", ep.Target(), "host", ep.HostHeader())
	start := time.Now()
	conn, resp, err := dialer.DialContext(ctx, ep.URL(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		c.setState(StateClosed)
		if resp != nil {
			err = fmt.Errorf("%w (HTTP %d)", err, resp.StatusCode)
		}
		return nil, fail(ErrConnection, fmt.Errorf("%s via %s: %w", ep, ep.Target(), err))
	}

	c.conn = conn
	c.setState(StateConnected)
	c.logger.Debug("Connected", "remote", conn.RemoteAddr().String(), "took", time.Since(start))
	return c, nil
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// Latencies returns the round-trip time of every successful call so far.
func (c *Client) Latencies() []time.Duration {
	c.latMu.Lock()
	defer c.latMu.Unlock()
	out := make([]time.Duration, len(c.latencies))
	copy(out, c.latencies)
	return out
}

// Call sends method with params and blocks until the matching response
// arrives, ctx ends, or the request timeout elapses.
//
// Frames that do not carry this request's id are discarded. A transport
// failure or timeout closes the connection; a node error response does not.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st := c.State(); st != StateConnected {
		return nil, fail(ErrRequestFailed, fmt.Errorf("%s: connection is %s", method, st))
	}

	if params == nil {
		params = []any{}
	}
	req := Request{
		JSONRPC: "2.0",
		ID:      c.newID(),
		Method:  method,
		Params:  params,
	}

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	// Unblock the read below as soon as ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	deadline, _ := ctx.Deadline()
	_ = c.conn.SetWriteDeadline(deadline)
	_ = c.conn.SetReadDeadline(deadline)

	c.setState(StateRequestInFlight)
	start := time.Now()

	c.logger.Debug("Sending request", "id", req.ID, "method", method, "params", params)
	if err := c.conn.WriteJSON(req); err != nil {
		return nil, c.abort(ctx, method, err)
	}

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, c.abort(ctx, method, err)
		}
		if msgType != websocket.TextMessage {
			c.logger.Debug("Discarding non-text frame", "type", msgType, "size", len(data))
			continue
		}

		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, c.abort(ctx, method, fmt.Errorf("malformed frame: %w", err))
		}
		if resp.Error != nil && isNull(resp.ID) {
			// Parse and invalid-request errors carry no id; the request
			// in flight is the one the node rejected.
			return nil, c.abort(ctx, method, fmt.Errorf("protocol error: %w", resp.Error))
		}
		if !resp.matchesID(req.ID) {
			c.logger.Debug("Discarding unmatched frame", "want", req.ID, "got", string(resp.ID), "method", resp.Method)
			continue
		}

		latency := time.Since(start)
		c.setState(StateConnected)
		c.logger.Debug("Received response", "id", req.ID, "method", method, "latency", latency, "size", len(data))

		if resp.Error != nil {
			return nil, stacked(&RemoteError{
				Method:  method,
				Code:    resp.Error.Code,
				Message: resp.Error.Message,
				Data:    resp.Error.Data,
			})
		}

		c.latMu.Lock()
		c.latencies = append(c.latencies, latency)
		c.latMu.Unlock()
		return resp.Result, nil
	}
}

// abort closes the connection after a failed request and classifies err.
func (c *Client) abort(ctx context.Context, method string, err error) error {
	class := classify(ctx, err)
	_ = c.Close()
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	c.logger.Debug("Request aborted", "method", method, "error", err)
	return fail(class, fmt.Errorf("%s: %w", method, err))
}

// Close releases the socket. It is safe to call more than once and from any
// goroutine.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.setState(StateClosed)
		if c.conn == nil {
			return
		}
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		err = c.conn.Close()
		c.logger.Debug("Connection closed")
	})
	return err
}
