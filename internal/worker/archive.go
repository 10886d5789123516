package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-quizclient/internal/config"
	ws "github.com/stemsi/exstem-quizclient/internal/websocket"
)

// resultsLimit is how many entries are kept per session list.
const resultsLimit = 100

// Entry is one archived result frame.
type Entry struct {
	Action        ws.Action       `json:"action"`
	SessionPrefix string          `json:"session_prefix"`
	Data          json.RawMessage `json:"data"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// Archive persists result entries somewhere outside the process.
type Archive interface {
	Record(ctx context.Context, e Entry) error
}

// NopArchive discards everything. Used when REDIS_URL is empty.
type NopArchive struct{}

func (NopArchive) Record(context.Context, Entry) error { return nil }

// RedisArchive appends entries to quiz:<prefix>:results and announces them on
// the events channel.
type RedisArchive struct {
	rdb *redis.Client
}

// NewRedisArchive creates a RedisArchive.
func NewRedisArchive(rdb *redis.Client) *RedisArchive {
	return &RedisArchive{rdb: rdb}
}

// Record pushes, trims and publishes in one transaction.
func (a *RedisArchive) Record(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	key := config.CacheKey.ResultsKey(e.SessionPrefix)
	pipe := a.rdb.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, -resultsLimit, -1)
	pipe.Publish(ctx, config.CacheKey.EventsChannel(), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("archive %s: %w", e.Action, err)
	}
	return nil
}

// Recent returns up to n newest entries for a session prefix, oldest first.
func (a *RedisArchive) Recent(ctx context.Context, sessionPrefix string, n int64) ([]Entry, error) {
	if n <= 0 || n > resultsLimit {
		n = resultsLimit
	}
	raws, err := a.rdb.LRange(ctx, config.CacheKey.ResultsKey(sessionPrefix), -n, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
