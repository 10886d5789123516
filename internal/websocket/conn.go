package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ConnState enumerates the lifecycle of the single client connection.
type ConnState string

const (
	StateDisconnected ConnState = "DISCONNECTED"
	StateConnecting   ConnState = "CONNECTING"
	StateOpen         ConnState = "OPEN"
	StateClosed       ConnState = "CLOSED"
	StateErrored      ConnState = "ERRORED"
)

// ErrNotConnected is returned by Send when the connection is not OPEN.
var ErrNotConnected = errors.New("websocket not connected")

const handshakeTimeout = 10 * time.Second

// Conn owns the one duplex connection to the quiz server.
// Frames are delivered to the handler in arrival order from a single read goroutine.
type Conn struct {
	mu        sync.Mutex
	writeMu   sync.Mutex
	ws        *websocket.Conn
	state     ConnState
	gen       uint64
	listeners []func(ConnState)
	onFrame   func([]byte)
	dialer    *websocket.Dialer
	log       zerolog.Logger
}

// NewConn creates a disconnected Conn. onFrame receives every inbound text frame.
func NewConn(log zerolog.Logger, onFrame func([]byte)) *Conn {
	return &Conn{
		state:   StateDisconnected,
		onFrame: onFrame,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
		log: log.With().Str("component", "ws_conn").Logger(),
	}
}

// OnStateChange registers a listener for every state transition.
func (c *Conn) OnStateChange(fn func(ConnState)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// State returns the current connection state.
func (c *Conn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials endpoint, replacing any existing connection.
// On failure the state becomes ERRORED; the error is returned for logging only.
func (c *Conn) Connect(ctx context.Context, endpoint string) error {
	c.mu.Lock()
	prev := c.ws
	c.ws = nil
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	c.transition(gen, StateConnecting)

	ws, _, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		c.log.Error().Err(err).Str("endpoint", endpoint).Msg("Dial failed")
		c.transition(gen, StateErrored)
		return err
	}

	c.mu.Lock()
	if c.gen != gen {
		// Superseded by Close or another Connect while dialing.
		c.mu.Unlock()
		ws.Close()
		return ErrNotConnected
	}
	c.ws = ws
	c.mu.Unlock()

	c.log.Info().Str("endpoint", endpoint).Msg("Connected")
	c.transition(gen, StateOpen)

	go c.readLoop(gen, ws)
	return nil
}

// Send writes one frame. It fails with ErrNotConnected unless the state is OPEN.
// Nothing is queued or retried.
func (c *Conn) Send(frame []byte) error {
	c.mu.Lock()
	ws := c.ws
	open := c.state == StateOpen
	c.mu.Unlock()

	if !open || ws == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writeFrame(ws, frame)
}

// Close shuts the connection down explicitly.
func (c *Conn) Close() error {
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	if ws == nil {
		c.transition(gen, StateClosed)
		return nil
	}

	c.writeMu.Lock()
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	err := ws.Close()
	c.transition(gen, StateClosed)
	return err
}

func (c *Conn) readLoop(gen uint64, ws *websocket.Conn) {
	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if closedCleanly(err) {
				c.log.Info().Msg("Connection closed")
				c.transition(gen, StateClosed)
			} else {
				c.log.Warn().Err(err).Msg("Connection lost")
				c.transition(gen, StateErrored)
			}
			ws.Close()
			return
		}
		if c.onFrame != nil {
			c.onFrame(msg)
		}
	}
}

// transition applies a state change only if gen is still the live generation,
// then notifies listeners outside the lock.
func (c *Conn) transition(gen uint64, next ConnState) {
	c.mu.Lock()
	if gen != c.gen || c.state == next {
		c.mu.Unlock()
		return
	}
	c.state = next
	if next != StateOpen && next != StateConnecting {
		c.ws = nil
	}
	listeners := make([]func(ConnState), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	c.log.Debug().Str("state", string(next)).Msg("Connection state changed")
	for _, fn := range listeners {
		fn(next)
	}
}
