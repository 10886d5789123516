package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quizclient/internal/events"
)

const keepAliveInterval = 30 * time.Second

// EventsHandler streams client events to local dashboards over SSE.
type EventsHandler struct {
	hub *events.Hub
	log zerolog.Logger
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(hub *events.Hub, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		hub: hub,
		log: log.With().Str("component", "events_handler").Logger(),
	}
}

// Stream godoc
// GET /api/v1/events
func (h *EventsHandler) Stream(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ch, cancel := h.hub.Subscribe()
	defer cancel()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	h.log.Info().Msg("Listener attached to event stream")

	// Flush headers so the listener sees the stream open immediately.
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Listener detached from event stream")
			return

		case payload, ok := <-ch:
			if !ok {
				// Dropped as a slow subscriber.
				return
			}
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(payload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte(": ping\n\n"))
			c.Writer.Flush()
		}
	}
}
