package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quizclient/internal/events"
)

func TestEventsStream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := events.NewHub(zerolog.Nop())
	r := gin.New()
	r.GET("/api/v1/events", NewEventsHandler(hub, zerolog.Nop()).Stream)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		r.ServeHTTP(rec, req)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	hub.Publish(events.TypeTick, map[string]interface{}{"kind": "exam", "remaining": 59})
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `data: {"type":"tick"`) {
		t.Errorf("body = %q", body)
	}
	if hub.Subscribers() != 0 {
		t.Errorf("subscriber leaked")
	}
}
