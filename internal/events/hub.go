// Package events fans client activity out to local listeners (the bridge SSE stream).
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Type names the kind of client event.
type Type string

const (
	TypeConnection Type = "connection"
	TypeState      Type = "state"
	TypeTick       Type = "tick"
	TypeResults    Type = "results"
	TypeAutoSubmit Type = "auto_submit"
	TypeError      Type = "error"
)

const sendBufferSize = 64

// Event is one pushed notification.
type Event struct {
	Type Type        `json:"type"`
	At   time.Time   `json:"at"`
	Data interface{} `json:"data,omitempty"`
}

// Hub broadcasts pre-encoded events to subscribers.
// A subscriber whose buffer is full is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
	log     zerolog.Logger
}

// NewHub creates an empty Hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[chan []byte]struct{}),
		log:     log.With().Str("component", "event_hub").Logger(),
	}
}

// Subscribe registers a listener. The returned cancel func is idempotent.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, sendBufferSize)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.remove(ch) })
	}
}

// Subscribers returns the number of live listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish never blocks.
func (h *Hub) Publish(t Type, data interface{}) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(Event{Type: t, At: time.Now().UTC(), Data: data})
	if err != nil {
		h.log.Error().Err(err).Str("type", string(t)).Msg("Failed to marshal event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- payload:
		default:
			h.log.Warn().Msg("Slow subscriber dropped")
			delete(h.clients, ch)
			close(ch)
		}
	}
}

func (h *Hub) remove(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}
