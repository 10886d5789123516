package websocket

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedFrame marks an inbound frame that could not be parsed.
// Only that frame is dropped; the connection stays up.
var ErrMalformedFrame = errors.New("malformed frame")

// EncodeRequest wraps data in the request envelope, stamped with now in whole seconds.
// token is empty before login.
func EncodeRequest(action Action, data interface{}, token, requestID string, now time.Time) ([]byte, error) {
	if data == nil {
		data = struct{}{}
	}
	b, err := json.Marshal(Request{
		MessageType: MessageTypeRequest,
		Action:      action,
		Timestamp:   now.Unix(),
		SessionID:   token,
		RequestID:   requestID,
		Data:        data,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", action, err)
	}
	return b, nil
}

// DecodeResponse parses one inbound frame. Both success and error frames
// decode without error; use Response.IsError to tell them apart.
func DecodeResponse(raw []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedFrame)
	}
	var resp Response
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return &resp, nil
}
