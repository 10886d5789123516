package service

import (
	"context"
	"errors"
	"sync"
	"time"

	ws "github.com/stemsi/exstem-quizclient/internal/websocket"
)

// ErrRequestTimeout resolves a request that saw no matching response in time.
var ErrRequestTimeout = errors.New("request timed out")

// ErrSubmitInProgress rejects a submission while another for the same
// activity kind awaits its response.
var ErrSubmitInProgress = errors.New("submission already in progress")

// Pending is one in-flight request awaiting its response.
type Pending struct {
	ID       string
	Action   ws.Action
	deadline time.Time

	once sync.Once
	done chan struct{}
	resp *ws.Response
	err  error
}

func newPending(id string, action ws.Action, deadline time.Time) *Pending {
	return &Pending{
		ID:       id,
		Action:   action,
		deadline: deadline,
		done:     make(chan struct{}),
	}
}

// Done is closed once the request is resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the request resolves or ctx ends.
// A server ERROR frame is returned as *websocket.ServerError.
func (p *Pending) Wait(ctx context.Context) (*ws.Response, error) {
	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pending) resolve(resp *ws.Response, err error) {
	p.once.Do(func() {
		p.resp = resp
		p.err = err
		close(p.done)
	})
}

// registry correlates responses to requests in send order.
type registry struct {
	items []*Pending
}

func (r *registry) add(p *Pending) {
	r.items = append(r.items, p)
}

func (r *registry) remove(i int) *Pending {
	p := r.items[i]
	r.items = append(r.items[:i], r.items[i+1:]...)
	return p
}

// take removes and returns the request a frame answers: by request id when the
// server echoes one, otherwise the oldest request of the same action.
func (r *registry) take(requestID string, action ws.Action) *Pending {
	if requestID != "" {
		for i, p := range r.items {
			if p.ID == requestID {
				return r.remove(i)
			}
		}
	}
	if action == "" {
		return nil
	}
	for i, p := range r.items {
		if p.Action == action {
			return r.remove(i)
		}
	}
	return nil
}

// takeForError attributes an error frame. Without an id or action it can only
// be attributed when exactly one request is outstanding.
func (r *registry) takeForError(requestID string, action ws.Action) *Pending {
	if p := r.take(requestID, action); p != nil {
		return p
	}
	if requestID == "" && action == "" && len(r.items) == 1 {
		return r.remove(0)
	}
	return nil
}

// expire removes and returns every request whose deadline has passed.
func (r *registry) expire(now time.Time) []*Pending {
	var expired []*Pending
	kept := r.items[:0]
	for _, p := range r.items {
		if !now.Before(p.deadline) {
			expired = append(expired, p)
			continue
		}
		kept = append(kept, p)
	}
	r.items = kept
	return expired
}

// drain removes every request.
func (r *registry) drain() []*Pending {
	items := r.items
	r.items = nil
	return items
}

func (r *registry) len() int {
	return len(r.items)
}
