package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quizclient/internal/model"
	"github.com/stemsi/exstem-quizclient/internal/state"
	"github.com/stemsi/exstem-quizclient/internal/timer"
	"github.com/stemsi/exstem-quizclient/internal/validator"
	ws "github.com/stemsi/exstem-quizclient/internal/websocket"
)

// Sender writes one encoded frame to the server.
type Sender interface {
	Send(frame []byte) error
}

// Hooks are the surfaces the session reports to. All are optional and are
// called on the goroutine driving the SessionService.
type Hooks struct {
	OnStateChange func(state.State)
	// OnError receives every reportable failure: not connected, malformed
	// frames and server ERROR frames (as *websocket.ServerError).
	OnError      func(error)
	OnTick       func(kind model.ActivityKind, remaining int64)
	OnResults    func(action ws.Action, data json.RawMessage)
	OnAutoSubmit func(kind model.ActivityKind, activityID int64)
}

// Options tune a SessionService. Zero values fall back to defaults.
type Options struct {
	RequestTimeout time.Duration
	RoomPollPeriod time.Duration
	Now            func() time.Time
	NewRequestID   func() string
}

const (
	defaultRequestTimeout = 10 * time.Second
	defaultRoomPollPeriod = 5 * time.Second
)

// SessionService is the dispatch/correlation core of the quiz client.
// It owns the state store and is driven by exactly one goroutine.
type SessionService struct {
	state     state.State
	sender    Sender
	scheduler *timer.Scheduler
	pending   registry
	hooks     Hooks
	log       zerolog.Logger

	now            func() time.Time
	newRequestID   func() string
	requestTimeout time.Duration
	pollPeriod     time.Duration
	nextPoll       time.Time

	// submitting holds the in-flight submission per kind; deferred holds
	// expiries that arrived while one was in flight.
	submitting map[model.ActivityKind]*Pending
	deferred   map[model.ActivityKind]int64
}

// NewSessionService creates a logged-out session writing through sender.
func NewSessionService(sender Sender, hooks Hooks, opts Options, log zerolog.Logger) *SessionService {
	s := &SessionService{
		state:          state.New(),
		sender:         sender,
		scheduler:      timer.NewScheduler(),
		hooks:          hooks,
		log:            log.With().Str("component", "session_service").Logger(),
		now:            opts.Now,
		newRequestID:   opts.NewRequestID,
		requestTimeout: opts.RequestTimeout,
		pollPeriod:     opts.RoomPollPeriod,
		submitting:     make(map[model.ActivityKind]*Pending),
		deferred:       make(map[model.ActivityKind]int64),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newRequestID == nil {
		s.newRequestID = func() string { return uuid.New().String() }
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = defaultRequestTimeout
	}
	if s.pollPeriod <= 0 {
		s.pollPeriod = defaultRoomPollPeriod
	}
	return s
}

// State returns a deep copy of the current state.
func (s *SessionService) State() state.State {
	return s.state.Clone()
}

// Outstanding returns the number of unresolved requests.
func (s *SessionService) Outstanding() int {
	return s.pending.len()
}

// Polling reports whether the room-list poll is armed.
func (s *SessionService) Polling() bool {
	return !s.nextPoll.IsZero()
}

// ─── Outgoing ───────────────────────────────────────────────────────

// Request validates, encodes and sends one request, registering it for
// correlation. A transport that is not open drops the request and reports
// websocket.ErrNotConnected.
func (s *SessionService) Request(action ws.Action, data interface{}) (*Pending, error) {
	return s.send(action, data, true)
}

// send does the work of Request; report controls whether transport failures
// reach OnError.
func (s *SessionService) send(action ws.Action, data interface{}, report bool) (*Pending, error) {
	if data != nil {
		if fields := validator.Struct(data); fields != nil {
			return nil, &validator.FieldsError{Fields: fields}
		}
	}

	now := s.now()
	id := s.newRequestID()
	frame, err := ws.EncodeRequest(action, data, s.state.Session.Token, id, now)
	if err != nil {
		return nil, err
	}

	if err := s.sender.Send(frame); err != nil {
		if errors.Is(err, ws.ErrNotConnected) {
			s.log.Warn().Str("action", string(action)).Msg("Request dropped: not connected")
		} else {
			s.log.Error().Err(err).Str("action", string(action)).Msg("Send failed")
			err = fmt.Errorf("send %s: %w", action, err)
		}
		if report {
			s.reportError(err)
		}
		return nil, err
	}

	p := newPending(id, action, now.Add(s.requestTimeout))
	s.pending.add(p)
	s.log.Debug().Str("action", string(action)).Str("request_id", id).Msg("Request sent")
	return p, nil
}

// Login authenticates with the quiz server.
func (s *SessionService) Login(username, password string) (*Pending, error) {
	return s.Request(ws.ActionLogin, model.LoginRequest{Username: username, Password: password})
}

// ListRooms refreshes the room list.
func (s *SessionService) ListRooms() (*Pending, error) {
	return s.Request(ws.ActionListRooms, model.EmptyRequest{})
}

// CreateRoom asks the server to create a room (admin).
func (s *SessionService) CreateRoom(req model.CreateRoomRequest) (*Pending, error) {
	return s.Request(ws.ActionCreateRoom, req)
}

// StartExam opens a waiting room (admin).
func (s *SessionService) StartExam(roomID int64) (*Pending, error) {
	return s.Request(ws.ActionStartExam, model.RoomRequest{RoomID: roomID})
}

// SelectRoom picks a listed room locally. Nothing is sent.
func (s *SessionService) SelectRoom(roomID int64) error {
	next, err := s.state.SelectRoom(roomID)
	if err != nil {
		return err
	}
	s.setState(next)
	return nil
}

// JoinRoom joins the selected room with its password.
func (s *SessionService) JoinRoom(roomPass string) (*Pending, error) {
	if s.state.SelectedRoomID == 0 {
		return nil, state.ErrNoRoomSelected
	}
	return s.Request(ws.ActionJoinRoom, model.JoinRoomRequest{
		RoomID:   s.state.SelectedRoomID,
		RoomPass: roomPass,
	})
}

// GetExamPaper fetches the paper of the selected room. The room must have
// been joined first.
func (s *SessionService) GetExamPaper() (*Pending, error) {
	if err := s.state.CheckExamAdmission(); err != nil {
		return nil, err
	}
	return s.Request(ws.ActionGetExamPaper, model.RoomRequest{RoomID: s.state.SelectedRoomID})
}

// SubmitExam submits the current exam explicitly.
func (s *SessionService) SubmitExam() (*Pending, error) {
	if err := s.state.CheckExamAdmission(); err != nil {
		return nil, err
	}
	return s.submit(model.ActivityExam)
}

// StartPractice requests a new practice set.
func (s *SessionService) StartPractice(req model.StartPracticeRequest) (*Pending, error) {
	return s.Request(ws.ActionStartPractice, req)
}

// SubmitPractice submits the current practice set explicitly.
func (s *SessionService) SubmitPractice() (*Pending, error) {
	return s.submit(model.ActivityPractice)
}

// GetRoomResults fetches the results of a room (admin).
func (s *SessionService) GetRoomResults(roomID int64) (*Pending, error) {
	return s.Request(ws.ActionGetRoomResults, model.RoomRequest{RoomID: roomID})
}

// GetUserHistory fetches the caller's submission history.
func (s *SessionService) GetUserHistory() (*Pending, error) {
	return s.Request(ws.ActionGetUserHistory, model.EmptyRequest{})
}

// SetAnswer records a locally chosen option. Nothing is sent.
func (s *SessionService) SetAnswer(kind model.ActivityKind, questionID int64, option string) error {
	next, err := s.state.SetAnswer(kind, questionID, option)
	if err != nil {
		return err
	}
	s.setState(next)
	return nil
}

// submit sends the activity's answers. The activity closes only when the
// server accepts them, so a rejected or timed-out submission can be retried
// and the countdown keeps running until then.
func (s *SessionService) submit(kind model.ActivityKind) (*Pending, error) {
	a := s.state.Activity(kind)
	if a.ID <= 0 {
		return nil, state.ErrNoActivity
	}
	if a.Submitted {
		return nil, state.ErrActivityClosed
	}
	if s.submitInFlight(kind) {
		return nil, ErrSubmitInProgress
	}
	p, err := s.sendSubmission(a)
	if err != nil {
		return nil, err
	}
	s.submitting[kind] = p
	return p, nil
}

// submitInFlight reports whether a submission for kind awaits its response.
func (s *SessionService) submitInFlight(kind model.ActivityKind) bool {
	p, ok := s.submitting[kind]
	if !ok {
		return false
	}
	select {
	case <-p.Done():
		delete(s.submitting, kind)
		return false
	default:
		return true
	}
}

func (s *SessionService) sendSubmission(a model.Activity) (*Pending, error) {
	if a.Kind == model.ActivityPractice {
		return s.Request(ws.ActionSubmitPractice, model.SubmitPracticeRequest{
			PracticeID:   a.ID,
			FinalAnswers: a.FinalAnswers(),
		})
	}
	return s.Request(ws.ActionSubmitExam, model.SubmitExamRequest{
		ExamID:       a.ID,
		FinalAnswers: a.FinalAnswers(),
	})
}

// ─── Incoming ───────────────────────────────────────────────────────

// HandleFrame processes one inbound frame. Malformed frames and server
// errors are reported and never touch the state.
func (s *SessionService) HandleFrame(raw []byte) {
	resp, err := ws.DecodeResponse(raw)
	if err != nil {
		s.log.Warn().Err(err).Int("bytes", len(raw)).Msg("Dropping malformed frame")
		s.reportError(err)
		return
	}

	if resp.IsError() {
		serr := resp.ServerError()
		s.log.Warn().
			Str("error_code", serr.Code).
			Str("error_message", serr.Message).
			Str("action", string(serr.Action)).
			Msg("Server error")
		if p := s.pending.takeForError(resp.RequestID, resp.Action); p != nil {
			p.resolve(resp, serr)
		}
		s.reportError(serr)
		return
	}

	p := s.pending.take(resp.RequestID, resp.Action)

	next, effects, err := state.Reduce(s.state, resp)
	if err != nil {
		s.log.Warn().Err(err).Msg("Dropping frame with undecodable data")
		if p != nil {
			p.resolve(resp, err)
		}
		s.reportError(err)
		return
	}

	if p != nil {
		p.resolve(resp, nil)
	} else if resp.Action.Known() {
		s.log.Debug().Str("action", string(resp.Action)).Msg("Unsolicited frame")
	} else {
		s.log.Debug().Str("action", string(resp.Action)).Msg("Ignoring unknown action")
	}

	s.setState(next)
	s.run(effects)
}

func (s *SessionService) run(effects []state.Effect) {
	for _, e := range effects {
		switch eff := e.(type) {
		case state.Send:
			// Fire and forget: failures were already reported by Request.
			_, _ = s.Request(eff.Action, eff.Data)
		case state.StartRoomPoll:
			s.nextPoll = s.now().Add(s.pollPeriod)
			s.log.Debug().Dur("period", s.pollPeriod).Msg("Room poll armed")
		case state.StartCountdown:
			s.startCountdown(eff.Kind, eff.EndTime)
		case state.StopCountdown:
			s.scheduler.Cancel(eff.Kind)
		case state.Results:
			if s.hooks.OnResults != nil {
				s.hooks.OnResults(eff.Action, eff.Data)
			}
		}
	}
}

func (s *SessionService) startCountdown(kind model.ActivityKind, endTime int64) {
	activityID := s.state.Activity(kind).ID
	s.scheduler.Start(kind, endTime,
		func(rem int64) {
			if s.hooks.OnTick != nil {
				s.hooks.OnTick(kind, rem)
			}
		},
		func() { s.autoSubmit(kind, activityID) },
	)
}

// autoSubmit sends the expired activity at most once per activity instance.
// An expiry that lands while a submission is in flight is held until that
// submission resolves.
func (s *SessionService) autoSubmit(kind model.ActivityKind, activityID int64) {
	a := s.state.Activity(kind)
	if a.ID != activityID || !s.state.CanAutoSubmit(kind) {
		s.log.Info().Str("kind", string(kind)).Int64("activity_id", activityID).Msg("Expiry ignored")
		return
	}
	if s.submitInFlight(kind) {
		s.deferred[kind] = activityID
		s.log.Info().Str("kind", string(kind)).Int64("activity_id", activityID).Msg("Expiry deferred: submission in flight")
		return
	}

	s.setState(s.state.MarkAutoSubmitted(kind))
	s.log.Info().Str("kind", string(kind)).Int64("activity_id", a.ID).Msg("Time over, auto-submitting")

	p, err := s.sendSubmission(a)
	if err != nil {
		s.log.Error().Err(err).Str("kind", string(kind)).Msg("Auto-submit failed")
	} else {
		s.submitting[kind] = p
	}
	if s.hooks.OnAutoSubmit != nil {
		s.hooks.OnAutoSubmit(kind, a.ID)
	}
}

// runDeferred fires held expiries whose blocking submission has resolved.
func (s *SessionService) runDeferred() {
	for kind, activityID := range s.deferred {
		if s.submitInFlight(kind) {
			continue
		}
		delete(s.deferred, kind)
		s.autoSubmit(kind, activityID)
	}
}

// ─── Time ───────────────────────────────────────────────────────────

// Tick drives the room poll, countdowns and request timeouts. Call it about
// once per second.
func (s *SessionService) Tick(now time.Time) {
	if !s.nextPoll.IsZero() && !now.Before(s.nextPoll) {
		s.nextPoll = now.Add(s.pollPeriod)
		if _, err := s.send(ws.ActionListRooms, model.EmptyRequest{}, false); err != nil {
			s.log.Debug().Err(err).Msg("Room poll skipped")
		}
	}

	s.scheduler.Tick(now)

	for _, p := range s.pending.expire(now) {
		s.log.Warn().Str("action", string(p.Action)).Str("request_id", p.ID).Msg("Request timed out")
		p.resolve(nil, fmt.Errorf("%s: %w", p.Action, ErrRequestTimeout))
	}

	s.runDeferred()
}

// Remaining returns the countdown seconds left for kind.
func (s *SessionService) Remaining(kind model.ActivityKind) int64 {
	return s.scheduler.Remaining(kind, s.now())
}

// FailPending resolves every outstanding request with err, e.g. when the
// connection drops.
func (s *SessionService) FailPending(err error) {
	for _, p := range s.pending.drain() {
		p.resolve(nil, err)
	}
}

func (s *SessionService) setState(next state.State) {
	s.state = next
	if s.hooks.OnStateChange != nil {
		s.hooks.OnStateChange(s.state.Clone())
	}
}

func (s *SessionService) reportError(err error) {
	if s.hooks.OnError != nil {
		s.hooks.OnError(err)
	}
}
