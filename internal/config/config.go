package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServerURL      string
	BridgePort     string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RoomPollPeriod time.Duration
	RequestTimeout time.Duration
	// RedisURL enables the results archive. Empty disables it.
	RedisURL string
	// AllowedOrigins controls CORS on the local bridge.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
	Username       string
	Password       string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		ServerURL:      getEnv("QUIZ_SERVER_URL", "ws://127.0.0.1:8080/ws"),
		BridgePort:     getEnv("BRIDGE_PORT", "8090"),
		GinMode:        getEnv("GIN_MODE", "release"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "pretty"),
		RoomPollPeriod: time.Duration(getEnvInt("ROOM_POLL_SECONDS", 5)) * time.Second,
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
		RedisURL:       getEnv("REDIS_URL", ""),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		Username:       getEnv("QUIZ_USERNAME", ""),
		Password:       getEnv("QUIZ_PASSWORD", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
