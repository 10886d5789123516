package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("QUIZ_SERVER_URL", "")
	t.Setenv("ROOM_POLL_SECONDS", "")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg := Load()
	if cfg.ServerURL != "ws://127.0.0.1:8080/ws" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.RoomPollPeriod != 5*time.Second {
		t.Errorf("RoomPollPeriod = %v", cfg.RoomPollPeriod)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.AllowedOrigins != nil {
		t.Errorf("AllowedOrigins = %v, want nil", cfg.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("QUIZ_SERVER_URL", "ws://quiz.local:9000/ws")
	t.Setenv("ROOM_POLL_SECONDS", "2")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg := Load()
	if cfg.ServerURL != "ws://quiz.local:9000/ws" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.RoomPollPeriod != 2*time.Second {
		t.Errorf("RoomPollPeriod = %v", cfg.RoomPollPeriod)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout should fall back, got %v", cfg.RequestTimeout)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}
