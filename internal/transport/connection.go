package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/consensource/consensource-cli/pkg/errors"
	"github.com/consensource/consensource-cli/pkg/logging"
)

// State is the connection lifecycle state.
type State int32

// Connection states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "DISCONNECTED"
	}
}

// response delivers a matched envelope, or the error that terminated the
// request, to the waiting caller.
type response struct {
	env *Envelope
	err error
}

// Connection is a single logical validator connection. It owns the table
// of outstanding requests exclusively; every insert, lookup and removal
// happens under one mutex, atomically with respect to concurrent senders
// and the receive loop.
//
// Reconnection is explicit: when the connection drops, every outstanding
// request fails with ErrConnectionLost and the caller decides whether to
// call Connect again. Nothing is replayed implicitly.
type Connection struct {
	endpoint    string
	dialTimeout time.Duration
	log         *logging.Logger

	// wmu serializes frame writes so concurrent requests cannot
	// interleave bytes on the socket.
	wmu sync.Mutex

	mu      sync.Mutex
	state   State
	conn    net.Conn
	pending map[string]chan response
	closed  bool
}

// NewConnection creates a connection to endpoint in the Disconnected
// state. Call Connect before issuing requests.
func NewConnection(endpoint string, dialTimeout time.Duration, log *logging.Logger) *Connection {
	return &Connection{
		endpoint:    endpoint,
		dialTimeout: dialTimeout,
		log:         log.WithField("endpoint", endpoint),
		pending:     make(map[string]chan response),
	}
}

// State returns the current connection state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect establishes the socket connection. It is a no-op when already
// connected and an error after Close.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.E(errors.ErrNotConnected, "transport", "Connect", "connection is closed")
	}
	if c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.endpoint)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		if conn != nil {
			conn.Close()
		}
		return errors.E(errors.ErrNotConnected, "transport", "Connect", "connection is closed")
	}
	if err != nil {
		c.state = StateDisconnected
		return errors.E(errors.ErrConnectionLost, "transport", "Connect", err.Error())
	}

	c.conn = conn
	c.state = StateConnected
	c.log.Debug("connected to validator")
	go c.receiveLoop(conn)
	return nil
}

// Request sends content under a fresh correlation id and waits for the
// matching response, at most timeout. A timed-out or cancelled request
// releases its correlation slot immediately; a response that arrives
// later is dropped by the receive loop as unmatched.
func (c *Connection) Request(ctx context.Context, kind MessageKind, content []byte, timeout time.Duration) (*Envelope, error) {
	correlationID := uuid.NewString()

	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return nil, errors.E(errors.ErrNotConnected, "transport", "Request",
			"connection is not established")
	}
	ch := make(chan response, 1)
	c.pending[correlationID] = ch
	conn := c.conn
	c.mu.Unlock()

	env := &Envelope{Kind: kind, CorrelationID: correlationID, Content: content}

	c.wmu.Lock()
	err := WriteFrame(conn, env)
	c.wmu.Unlock()
	if err != nil {
		c.remove(correlationID)
		c.teardown(conn)
		return nil, errors.E(errors.ErrConnectionLost, "transport", "Request", err.Error())
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.err != nil {
			return nil, resp.err
		}
		return resp.env, nil
	case <-timer.C:
		c.remove(correlationID)
		return nil, errors.E(errors.ErrTimedOut, "transport", "Request",
			"no response within "+timeout.String())
	case <-ctx.Done():
		c.remove(correlationID)
		return nil, ctx.Err()
	}
}

// Ping performs a round trip to verify the connection is alive.
func (c *Connection) Ping(ctx context.Context, timeout time.Duration) error {
	resp, err := c.Request(ctx, KindPingRequest, nil, timeout)
	if err != nil {
		return err
	}
	if resp.Kind != KindPingResponse {
		return errors.E(errors.ErrProtocolViolation, "transport", "Ping",
			"unexpected response kind "+resp.Kind.String())
	}
	return nil
}

// Close tears down the connection permanently. Outstanding requests fail
// with ErrConnectionLost.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
	c.failPendingLocked()
	return nil
}

// receiveLoop reads frames from conn and routes them to waiting callers
// until the connection fails. An undecodable frame is fatal to the
// connection: the stream offset can no longer be trusted.
func (c *Connection) receiveLoop(conn net.Conn) {
	for {
		env, err := ReadFrame(conn)
		if err != nil {
			if errors.Is(err, errors.ErrProtocolViolation) {
				c.log.WithError(err).Error("protocol violation, dropping connection")
			} else {
				c.log.WithError(err).Debug("connection read failed")
			}
			c.teardown(conn)
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[env.CorrelationID]
		if ok {
			delete(c.pending, env.CorrelationID)
		}
		c.mu.Unlock()

		if !ok {
			// Response for a request that timed out or was cancelled.
			c.log.WithField("correlation_id", env.CorrelationID).
				Debug("dropping unmatched response")
			continue
		}
		ch <- response{env: env}
	}
}

// teardown closes conn and fails all outstanding requests, unless a
// newer connection has already replaced it.
func (c *Connection) teardown(conn net.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return
	}
	conn.Close()
	c.conn = nil
	c.state = StateDisconnected
	c.failPendingLocked()
}

func (c *Connection) failPendingLocked() {
	for id, ch := range c.pending {
		delete(c.pending, id)
		ch <- response{err: errors.E(errors.ErrConnectionLost, "transport", "Request",
			"connection lost while awaiting response")}
	}
}

func (c *Connection) remove(correlationID string) {
	c.mu.Lock()
	delete(c.pending, correlationID)
	c.mu.Unlock()
}
