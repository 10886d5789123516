package websocket

import (
	"encoding/json"
)

// ─── Actions ────────────────────────────────────────────────────────

type Action string

const (
	ActionLogin          Action = "LOGIN"
	ActionListRooms      Action = "LIST_ROOMS"
	ActionCreateRoom     Action = "CREATE_ROOM"
	ActionJoinRoom       Action = "JOIN_ROOM"
	ActionStartExam      Action = "START_EXAM"
	ActionGetExamPaper   Action = "GET_EXAM_PAPER"
	ActionSubmitExam     Action = "SUBMIT_EXAM"
	ActionStartPractice  Action = "START_PRACTICE"
	ActionSubmitPractice Action = "SUBMIT_PRACTICE"
	ActionGetRoomResults Action = "GET_ROOM_RESULTS"
	ActionGetUserHistory Action = "GET_USER_HISTORY"
)

// Known reports whether the action is part of the protocol.
func (a Action) Known() bool {
	switch a {
	case ActionLogin, ActionListRooms, ActionCreateRoom, ActionJoinRoom, ActionStartExam,
		ActionGetExamPaper, ActionSubmitExam, ActionStartPractice, ActionSubmitPractice,
		ActionGetRoomResults, ActionGetUserHistory:
		return true
	}
	return false
}

const (
	MessageTypeRequest = "REQUEST"
	StatusError        = "ERROR"
)

// ─── Client → Server ────────────────────────────────────────────────

// Request is the envelope around every outgoing message.
// RequestID is echoed by servers that support explicit correlation.
type Request struct {
	MessageType string      `json:"message_type"`
	Action      Action      `json:"action"`
	Timestamp   int64       `json:"timestamp"`
	SessionID   string      `json:"session_id"`
	RequestID   string      `json:"request_id,omitempty"`
	Data        interface{} `json:"data"`
}

// ─── Server → Client ────────────────────────────────────────────────

// Response is either a success frame or an error frame.
// Error frames are not guaranteed to carry an action.
type Response struct {
	Action       Action          `json:"action,omitempty"`
	Status       string          `json:"status,omitempty"`
	SessionID    string          `json:"session_id,omitempty"`
	RequestID    string          `json:"request_id,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// IsError reports whether the frame is a server-reported error.
func (r *Response) IsError() bool {
	return r.Status == StatusError
}

// ServerError returns the error carried by an error frame, or nil.
func (r *Response) ServerError() *ServerError {
	if !r.IsError() {
		return nil
	}
	return &ServerError{
		Code:      r.ErrorCode,
		Message:   r.ErrorMessage,
		Action:    r.Action,
		RequestID: r.RequestID,
	}
}

// DecodeData unmarshals the action-specific data into v.
// A missing or null data field leaves v untouched.
func (r *Response) DecodeData(v interface{}) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// ServerError is an ERROR frame surfaced verbatim.
type ServerError struct {
	Code      string
	Message   string
	Action    Action
	RequestID string
}

func (e *ServerError) Error() string {
	return e.Code + ": " + e.Message
}
