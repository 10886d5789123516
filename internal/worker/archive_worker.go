package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	archiveQueueSize = 64
	recordTimeout    = 5 * time.Second
)

// ArchiveWorker records result entries off the client loop.
// Enqueue never blocks; a full queue drops the entry.
type ArchiveWorker struct {
	archive Archive
	queue   chan Entry
	log     zerolog.Logger
}

// NewArchiveWorker creates a new ArchiveWorker.
func NewArchiveWorker(archive Archive, log zerolog.Logger) *ArchiveWorker {
	return &ArchiveWorker{
		archive: archive,
		queue:   make(chan Entry, archiveQueueSize),
		log:     log.With().Str("component", "archive_worker").Logger(),
	}
}

// Enqueue hands an entry to the worker. It reports whether the entry was queued.
func (w *ArchiveWorker) Enqueue(e Entry) bool {
	select {
	case w.queue <- e:
		return true
	default:
		w.log.Warn().Str("action", string(e.Action)).Msg("Archive queue full, entry dropped")
		return false
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *ArchiveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain()
			w.log.Info().Msg("Worker stopped")
			return
		case e := <-w.queue:
			w.record(ctx, e)
		}
	}
}

func (w *ArchiveWorker) record(parent context.Context, e Entry) {
	ctx, cancel := context.WithTimeout(parent, recordTimeout)
	defer cancel()
	if err := w.archive.Record(ctx, e); err != nil {
		w.log.Error().Err(err).Str("action", string(e.Action)).Msg("Record error")
	}
}

// drain records everything already queued.
func (w *ArchiveWorker) drain() {
	drained := 0
	for {
		select {
		case e := <-w.queue:
			w.record(context.Background(), e)
			drained++
		default:
			if drained > 0 {
				w.log.Info().Int("count", drained).Msg("Drained remaining items")
			}
			return
		}
	}
}
