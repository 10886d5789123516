package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quizclient/internal/client"
	"github.com/stemsi/exstem-quizclient/internal/model"
	"github.com/stemsi/exstem-quizclient/internal/response"
	"github.com/stemsi/exstem-quizclient/internal/service"
	"github.com/stemsi/exstem-quizclient/internal/state"
	"github.com/stemsi/exstem-quizclient/internal/timer"
	"github.com/stemsi/exstem-quizclient/internal/validator"
	ws "github.com/stemsi/exstem-quizclient/internal/websocket"
	"github.com/stemsi/exstem-quizclient/internal/worker"
)

// QuizClient is the part of client.Client the bridge drives.
type QuizClient interface {
	ConnState() ws.ConnState
	Snapshot() (state.State, error)
	Remaining(kind model.ActivityKind) (int64, error)
	Login(username, password string) (*service.Pending, error)
	ListRooms() (*service.Pending, error)
	CreateRoom(req model.CreateRoomRequest) (*service.Pending, error)
	StartExam(roomID int64) (*service.Pending, error)
	SelectRoom(roomID int64) error
	JoinRoom(roomPass string) (*service.Pending, error)
	GetExamPaper() (*service.Pending, error)
	SubmitExam() (*service.Pending, error)
	StartPractice(req model.StartPracticeRequest) (*service.Pending, error)
	SubmitPractice() (*service.Pending, error)
	GetRoomResults(roomID int64) (*service.Pending, error)
	GetUserHistory() (*service.Pending, error)
	SetAnswer(kind model.ActivityKind, questionID int64, option string) error
}

var _ QuizClient = (*client.Client)(nil)

// ArchiveReader reads archived results back. Nil when REDIS_URL is empty.
type ArchiveReader interface {
	Recent(ctx context.Context, sessionPrefix string, n int64) ([]worker.Entry, error)
}

// BridgeHandler exposes the quiz session over local HTTP.
type BridgeHandler struct {
	client  QuizClient
	archive ArchiveReader
	wait    time.Duration
	log     zerolog.Logger
}

// NewBridgeHandler creates a new BridgeHandler. wait bounds how long a handler
// blocks for the quiz server's answer.
func NewBridgeHandler(c QuizClient, archive ArchiveReader, wait time.Duration, log zerolog.Logger) *BridgeHandler {
	if wait <= 0 {
		wait = 10 * time.Second
	}
	return &BridgeHandler{
		client:  c,
		archive: archive,
		wait:    wait,
		log:     log.With().Str("component", "bridge_handler").Logger(),
	}
}

type joinRoomBody struct {
	RoomPass string `json:"room_pass" binding:"required,max=64"`
}

type stateView struct {
	Connection ws.ConnState        `json:"connection"`
	Session    model.Session       `json:"session"`
	Rooms      []model.RoomSummary `json:"rooms"`
	Selected   int64               `json:"selected_room_id"`
	Joined     int64               `json:"joined_room_id"`
	Exam       activityView        `json:"exam"`
	Practice   activityView        `json:"practice"`
}

type activityView struct {
	model.Activity
	Remaining int64  `json:"remaining_seconds"`
	Display   string `json:"remaining_display"`
}

// GetState godoc
// GET /api/v1/state
func (h *BridgeHandler) GetState(c *gin.Context) {
	st, err := h.client.Snapshot()
	if err != nil {
		h.fail(c, err)
		return
	}
	// The token stays on this machine; only a prefix is exposed.
	sess := st.Session
	sess.Token = sess.TokenPrefix()

	response.Success(c, http.StatusOK, stateView{
		Connection: h.client.ConnState(),
		Session:    sess,
		Rooms:      st.Rooms,
		Selected:   st.SelectedRoomID,
		Joined:     st.JoinedRoomID,
		Exam:       h.activityView(st.Exam),
		Practice:   h.activityView(st.Practice),
	})
}

func (h *BridgeHandler) activityView(a model.Activity) activityView {
	rem, _ := h.client.Remaining(a.Kind)
	return activityView{Activity: a, Remaining: rem, Display: timer.FormatRemaining(rem)}
}

// GetLobby godoc
// GET /api/v1/lobby
// Returns the joinable rooms from the last room list.
func (h *BridgeHandler) GetLobby(c *gin.Context) {
	st, err := h.client.Snapshot()
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rooms": st.Lobby()})
}

// Login godoc
// POST /api/v1/login
func (h *BridgeHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.relay(c, func() (*service.Pending, error) { return h.client.Login(req.Username, req.Password) })
}

// ListRooms godoc
// GET /api/v1/rooms
func (h *BridgeHandler) ListRooms(c *gin.Context) {
	h.relay(c, h.client.ListRooms)
}

// CreateRoom godoc
// POST /api/v1/rooms
func (h *BridgeHandler) CreateRoom(c *gin.Context) {
	var req model.CreateRoomRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.relay(c, func() (*service.Pending, error) { return h.client.CreateRoom(req) })
}

// SelectRoom godoc
// POST /api/v1/rooms/:room_id/select
func (h *BridgeHandler) SelectRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	if err := h.client.SelectRoom(roomID); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"selected_room_id": roomID})
}

// JoinRoom godoc
// POST /api/v1/rooms/:room_id/join
// Selects the room, then joins it with the given password.
func (h *BridgeHandler) JoinRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var body joinRoomBody
	if fields := validator.Bind(c, &body); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if err := h.client.SelectRoom(roomID); err != nil {
		h.fail(c, err)
		return
	}
	h.relay(c, func() (*service.Pending, error) { return h.client.JoinRoom(body.RoomPass) })
}

// StartExam godoc
// POST /api/v1/rooms/:room_id/start
func (h *BridgeHandler) StartExam(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	st, err := h.client.Snapshot()
	if err != nil {
		h.fail(c, err)
		return
	}
	// Rooms missing from the last listing are left to the server to judge.
	if room, ok := st.Room(roomID); ok && !room.Startable() {
		response.Fail(c, http.StatusConflict, response.ErrRoomNotStartable)
		return
	}
	h.relay(c, func() (*service.Pending, error) { return h.client.StartExam(roomID) })
}

// GetRoomResults godoc
// GET /api/v1/rooms/:room_id/results
func (h *BridgeHandler) GetRoomResults(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	h.relay(c, func() (*service.Pending, error) { return h.client.GetRoomResults(roomID) })
}

// GetExamPaper godoc
// POST /api/v1/exam/paper
func (h *BridgeHandler) GetExamPaper(c *gin.Context) {
	h.relay(c, h.client.GetExamPaper)
}

// StartPractice godoc
// POST /api/v1/practice
func (h *BridgeHandler) StartPractice(c *gin.Context) {
	var req model.StartPracticeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.relay(c, func() (*service.Pending, error) { return h.client.StartPractice(req) })
}

// SetAnswer returns the handler for PUT /api/v1/{exam,practice}/answers.
func (h *BridgeHandler) SetAnswer(kind model.ActivityKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.AnswerRequest
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
		if err := h.client.SetAnswer(kind, req.QuestionID, req.Option); err != nil {
			h.fail(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"question_id": req.QuestionID, "option": req.Option})
	}
}

// Submit returns the handler for POST /api/v1/{exam,practice}/submit.
func (h *BridgeHandler) Submit(kind model.ActivityKind) gin.HandlerFunc {
	submit := h.client.SubmitExam
	if kind == model.ActivityPractice {
		submit = h.client.SubmitPractice
	}
	return func(c *gin.Context) {
		h.relay(c, submit)
	}
}

// GetHistory godoc
// GET /api/v1/history
func (h *BridgeHandler) GetHistory(c *gin.Context) {
	h.relay(c, h.client.GetUserHistory)
}

// GetArchive godoc
// GET /api/v1/archive?limit=20
// Returns archived results of the current session from Redis.
func (h *BridgeHandler) GetArchive(c *gin.Context) {
	if h.archive == nil {
		response.Fail(c, http.StatusNotFound, response.ErrArchiveDisabled)
		return
	}
	st, err := h.client.Snapshot()
	if err != nil {
		h.fail(c, err)
		return
	}
	if !st.Session.Logged {
		response.Fail(c, http.StatusUnauthorized, response.ErrNotLoggedIn)
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	entries, err := h.archive.Recent(c.Request.Context(), st.Session.TokenPrefix(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read archive")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"entries": entries})
}

// ─── Helpers ─────────────────────────────────────────────────────────

// relay sends one request and answers with the server's data once it arrives.
func (h *BridgeHandler) relay(c *gin.Context, send func() (*service.Pending, error)) {
	p, err := send()
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.wait)
	defer cancel()
	resp, err := p.Wait(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = service.ErrRequestTimeout
		}
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp.Data)
}

// fail maps client-side errors onto HTTP status codes.
func (h *BridgeHandler) fail(c *gin.Context, err error) {
	var serr *ws.ServerError
	var verr *validator.FieldsError

	switch {
	case errors.As(err, &serr):
		code := response.ErrCode(serr.Code)
		if code == "" {
			code = response.ErrServer
		}
		response.FailWithMessage(c, http.StatusUnprocessableEntity, code, serr.Message)
	case errors.As(err, &verr):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, verr.Fields)
	case errors.Is(err, ws.ErrNotConnected):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrNotConnected)
	case errors.Is(err, client.ErrClientClosed):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrClientClosed)
	case errors.Is(err, service.ErrRequestTimeout):
		response.Fail(c, http.StatusGatewayTimeout, response.ErrRequestTimeout)
	case errors.Is(err, ws.ErrMalformedFrame):
		response.Fail(c, http.StatusBadGateway, response.ErrBadFrame)
	case errors.Is(err, state.ErrNoRoomSelected):
		response.Fail(c, http.StatusConflict, response.ErrNoRoomSelected)
	case errors.Is(err, state.ErrNotJoined):
		response.Fail(c, http.StatusConflict, response.ErrNotJoined)
	case errors.Is(err, state.ErrNoActivity):
		response.Fail(c, http.StatusConflict, response.ErrNoActivity)
	case errors.Is(err, state.ErrActivityClosed):
		response.Fail(c, http.StatusConflict, response.ErrActivityClosed)
	case errors.Is(err, service.ErrSubmitInProgress):
		response.Fail(c, http.StatusConflict, response.ErrSubmitInProgress)
	case errors.Is(err, state.ErrUnknownRoom):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, state.ErrUnknownQuestion), errors.Is(err, state.ErrUnknownOption):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAnswer)
	default:
		h.log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Unhandled bridge error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func roomIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
