package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quizclient/internal/client"
	"github.com/stemsi/exstem-quizclient/internal/config"
	"github.com/stemsi/exstem-quizclient/internal/database"
	"github.com/stemsi/exstem-quizclient/internal/events"
	"github.com/stemsi/exstem-quizclient/internal/handler"
	"github.com/stemsi/exstem-quizclient/internal/logger"
	"github.com/stemsi/exstem-quizclient/internal/model"
	"github.com/stemsi/exstem-quizclient/internal/router"
	"github.com/stemsi/exstem-quizclient/internal/service"
	"github.com/stemsi/exstem-quizclient/internal/state"
	"github.com/stemsi/exstem-quizclient/internal/timer"
	"github.com/stemsi/exstem-quizclient/internal/validator"
	ws "github.com/stemsi/exstem-quizclient/internal/websocket"
	"github.com/stemsi/exstem-quizclient/internal/worker"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("server", cfg.ServerURL).
		Str("bridge_port", cfg.BridgePort).
		Str("log_level", cfg.LogLevel).
		Msg("Starting quiz client")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Results Archive (optional Redis) ──────────────────────────────
	var archive worker.Archive = worker.NopArchive{}
	var archiveReader handler.ArchiveReader
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		ra := worker.NewRedisArchive(rdb)
		archive = ra
		archiveReader = ra
	} else {
		log.Info().Msg("REDIS_URL not set, results archive disabled")
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	archiveWorker := worker.NewArchiveWorker(archive, log)
	workerDone := make(chan struct{})
	go func() {
		archiveWorker.Start(workerCtx)
		close(workerDone)
	}()

	// ─── Event Hub & Session Hooks ─────────────────────────────────────
	hub := events.NewHub(log)
	hooks := newHooks(hub, archiveWorker)

	// ─── Quiz Client ───────────────────────────────────────────────────
	qc := client.New(client.Config{
		Endpoint:       cfg.ServerURL,
		RequestTimeout: cfg.RequestTimeout,
		RoomPollPeriod: cfg.RoomPollPeriod,
	}, hooks, func(st ws.ConnState) {
		hub.Publish(events.TypeConnection, map[string]ws.ConnState{"state": st})
	}, log)
	qc.Start()

	dialCtx, dialCancel := context.WithTimeout(ctx, 15*time.Second)
	if err := qc.Connect(dialCtx); err != nil {
		log.Warn().Err(err).Msg("Quiz server unreachable, bridge will report NOT_CONNECTED")
	} else if cfg.Username != "" {
		autoLogin(qc, cfg, log)
	}
	dialCancel()

	// ─── Setup Router ──────────────────────────────────────────────────
	handlers := &router.Handlers{
		Bridge: handler.NewBridgeHandler(qc, archiveReader, cfg.RequestTimeout, log),
		Events: handler.NewEventsHandler(hub, log),
	}
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    "127.0.0.1:" + cfg.BridgePort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Bridge listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Bridge error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout). SSE streams end with
	// their request contexts.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Close the session; outstanding requests fail with ErrClientClosed.
	if err := qc.Close(); err != nil {
		log.Warn().Err(err).Msg("Quiz connection close error")
	}

	// 3. Stop the archive worker and wait for its queue to drain.
	workerCancel()
	<-workerDone

	log.Info().Msg("Shutdown complete")
}

// newHooks fans session activity out to the event hub and the archive.
// Hooks run on the client loop goroutine, so prefix needs no lock.
func newHooks(hub *events.Hub, archiveWorker *worker.ArchiveWorker) service.Hooks {
	var prefix string
	return service.Hooks{
		OnStateChange: func(st state.State) {
			prefix = st.Session.TokenPrefix()
			hub.Publish(events.TypeState, map[string]interface{}{
				"logged":           st.Session.Logged,
				"role":             st.Session.Role,
				"rooms":            st.Rooms,
				"selected_room_id": st.SelectedRoomID,
				"joined_room_id":   st.JoinedRoomID,
				"exam_id":          st.Exam.ID,
				"practice_id":      st.Practice.ID,
			})
		},
		OnError: func(err error) {
			hub.Publish(events.TypeError, map[string]string{"message": err.Error()})
		},
		OnTick: func(kind model.ActivityKind, rem int64) {
			hub.Publish(events.TypeTick, map[string]interface{}{
				"kind":      kind,
				"remaining": rem,
				"display":   timer.FormatRemaining(rem),
			})
		},
		OnResults: func(action ws.Action, data json.RawMessage) {
			hub.Publish(events.TypeResults, map[string]interface{}{"action": action, "data": data})
			archiveWorker.Enqueue(worker.Entry{
				Action:        action,
				SessionPrefix: prefix,
				Data:          data,
				RecordedAt:    time.Now().UTC(),
			})
		},
		OnAutoSubmit: func(kind model.ActivityKind, activityID int64) {
			hub.Publish(events.TypeAutoSubmit, map[string]interface{}{"kind": kind, "id": activityID})
		},
	}
}

// autoLogin logs in with QUIZ_USERNAME, prompting for the password on a
// terminal when QUIZ_PASSWORD is unset.
func autoLogin(qc *client.Client, cfg *config.Config, log zerolog.Logger) {
	password := cfg.Password
	if password == "" {
		if !term.IsTerminal(int(syscall.Stdin)) {
			log.Warn().Msg("QUIZ_PASSWORD not set and stdin is not a terminal, skipping auto-login")
			return
		}
		fmt.Printf("Password for %s: ", cfg.Username)
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // Newline after password input
		if err != nil {
			log.Error().Err(err).Msg("Error reading password")
			return
		}
		password = string(bytePassword)
	}

	p, err := qc.Login(cfg.Username, password)
	if err != nil {
		log.Error().Err(err).Msg("Auto-login failed")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()
	if _, err := p.Wait(ctx); err != nil {
		log.Error().Err(err).Str("username", cfg.Username).Msg("Auto-login rejected")
		return
	}
	log.Info().Str("username", cfg.Username).Msg("Logged in")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
