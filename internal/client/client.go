// Package client runs the quiz session on a single event loop: inbound frames,
// timer ticks and caller operations are all serialized onto one goroutine.
package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quizclient/internal/model"
	"github.com/stemsi/exstem-quizclient/internal/service"
	"github.com/stemsi/exstem-quizclient/internal/state"
	ws "github.com/stemsi/exstem-quizclient/internal/websocket"
)

// ErrClientClosed is returned by every operation after Close.
var ErrClientClosed = errors.New("client closed")

// Config configures a Client.
type Config struct {
	Endpoint       string
	RequestTimeout time.Duration
	RoomPollPeriod time.Duration
	// TickInterval defaults to 250ms so expiry lands shortly after the
	// deadline second.
	TickInterval time.Duration
}

// Client is a goroutine-safe handle on one quiz session.
// Hooks run on the loop goroutine and must not call back into the Client
// synchronously.
type Client struct {
	cfg    Config
	conn   *ws.Conn
	svc    *service.SessionService
	onConn func(ws.ConnState)
	log    zerolog.Logger

	cmds      chan func()
	quit      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// New wires a transport and a session service together. Call Start before use.
// onConn, when non-nil, observes every connection state transition.
func New(cfg Config, hooks service.Hooks, onConn func(ws.ConnState), log zerolog.Logger) *Client {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 250 * time.Millisecond
	}
	c := &Client{
		cfg:    cfg,
		onConn: onConn,
		log:    log.With().Str("component", "client").Logger(),
		cmds:   make(chan func(), 64),
		quit:   make(chan struct{}),
	}
	c.conn = ws.NewConn(log, c.enqueueFrame)
	c.conn.OnStateChange(c.connStateChanged)
	c.svc = service.NewSessionService(c.conn, hooks, service.Options{
		RequestTimeout: cfg.RequestTimeout,
		RoomPollPeriod: cfg.RoomPollPeriod,
	}, log)
	return c
}

// Start launches the event loop and its ticker.
func (c *Client) Start() {
	c.startOnce.Do(func() {
		c.wg.Add(1)
		go c.loop()
	})
}

func (c *Client) loop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	c.log.Debug().Msg("Event loop started")
	for {
		select {
		case <-c.quit:
			c.svc.FailPending(ErrClientClosed)
			c.log.Debug().Msg("Event loop stopped")
			return
		case fn := <-c.cmds:
			fn()
		case now := <-ticker.C:
			c.svc.Tick(now)
		}
	}
}

// Connect dials the configured endpoint. Failure leaves the connection
// ERRORED; the error is returned for the caller to log.
func (c *Client) Connect(ctx context.Context) error {
	return c.conn.Connect(ctx, c.cfg.Endpoint)
}

// ConnState returns the transport state.
func (c *Client) ConnState() ws.ConnState {
	return c.conn.State()
}

// Close stops the loop and the connection. Outstanding requests fail with
// ErrClientClosed.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.quit)
		c.wg.Wait()
		err = c.conn.Close()
	})
	return err
}

func (c *Client) enqueueFrame(frame []byte) {
	select {
	case c.cmds <- func() { c.svc.HandleFrame(frame) }:
	case <-c.quit:
	}
}

func (c *Client) connStateChanged(st ws.ConnState) {
	if c.onConn != nil {
		c.onConn(st)
	}
	if st == ws.StateClosed || st == ws.StateErrored {
		select {
		case c.cmds <- func() { c.svc.FailPending(ws.ErrNotConnected) }:
		case <-c.quit:
		}
	}
}

// do runs fn on the loop goroutine and waits for it.
func (c *Client) do(fn func(svc *service.SessionService)) error {
	done := make(chan struct{})
	select {
	case c.cmds <- func() { fn(c.svc); close(done) }:
	case <-c.quit:
		return ErrClientClosed
	}
	select {
	case <-done:
		return nil
	case <-c.quit:
		return ErrClientClosed
	}
}

func (c *Client) request(fn func(svc *service.SessionService) (*service.Pending, error)) (*service.Pending, error) {
	var p *service.Pending
	var err error
	if derr := c.do(func(svc *service.SessionService) { p, err = fn(svc) }); derr != nil {
		return nil, derr
	}
	return p, err
}

// Snapshot returns a copy of the current state.
func (c *Client) Snapshot() (state.State, error) {
	var st state.State
	err := c.do(func(svc *service.SessionService) { st = svc.State() })
	return st, err
}

// Remaining returns the countdown seconds left for an activity kind.
func (c *Client) Remaining(kind model.ActivityKind) (int64, error) {
	var rem int64
	err := c.do(func(svc *service.SessionService) { rem = svc.Remaining(kind) })
	return rem, err
}

func (c *Client) Login(username, password string) (*service.Pending, error) {
	return c.request(func(svc *service.SessionService) (*service.Pending, error) {
		return svc.Login(username, password)
	})
}

func (c *Client) ListRooms() (*service.Pending, error) {
	return c.request((*service.SessionService).ListRooms)
}

func (c *Client) CreateRoom(req model.CreateRoomRequest) (*service.Pending, error) {
	return c.request(func(svc *service.SessionService) (*service.Pending, error) {
		return svc.CreateRoom(req)
	})
}

func (c *Client) StartExam(roomID int64) (*service.Pending, error) {
	return c.request(func(svc *service.SessionService) (*service.Pending, error) {
		return svc.StartExam(roomID)
	})
}

func (c *Client) SelectRoom(roomID int64) error {
	var err error
	if derr := c.do(func(svc *service.SessionService) { err = svc.SelectRoom(roomID) }); derr != nil {
		return derr
	}
	return err
}

func (c *Client) JoinRoom(roomPass string) (*service.Pending, error) {
	return c.request(func(svc *service.SessionService) (*service.Pending, error) {
		return svc.JoinRoom(roomPass)
	})
}

func (c *Client) GetExamPaper() (*service.Pending, error) {
	return c.request((*service.SessionService).GetExamPaper)
}

func (c *Client) SubmitExam() (*service.Pending, error) {
	return c.request((*service.SessionService).SubmitExam)
}

func (c *Client) StartPractice(req model.StartPracticeRequest) (*service.Pending, error) {
	return c.request(func(svc *service.SessionService) (*service.Pending, error) {
		return svc.StartPractice(req)
	})
}

func (c *Client) SubmitPractice() (*service.Pending, error) {
	return c.request((*service.SessionService).SubmitPractice)
}

func (c *Client) GetRoomResults(roomID int64) (*service.Pending, error) {
	return c.request(func(svc *service.SessionService) (*service.Pending, error) {
		return svc.GetRoomResults(roomID)
	})
}

func (c *Client) GetUserHistory() (*service.Pending, error) {
	return c.request((*service.SessionService).GetUserHistory)
}

func (c *Client) SetAnswer(kind model.ActivityKind, questionID int64, option string) error {
	var err error
	if derr := c.do(func(svc *service.SessionService) { err = svc.SetAnswer(kind, questionID, option) }); derr != nil {
		return derr
	}
	return err
}
