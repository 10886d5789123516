package state

import (
	"encoding/json"
	"fmt"

	"github.com/stemsi/exstem-quizclient/internal/model"
	ws "github.com/stemsi/exstem-quizclient/internal/websocket"
)

// Effect is a side effect requested by Reduce and carried out by the caller.
type Effect interface {
	effect()
}

// Send asks for a fire-and-forget follow-up request.
type Send struct {
	Action ws.Action
	Data   interface{}
}

// StartRoomPoll (re)arms the periodic LIST_ROOMS poll.
type StartRoomPoll struct{}

// StartCountdown (re)starts the countdown for an activity kind.
type StartCountdown struct {
	Kind    model.ActivityKind
	EndTime int64
}

// StopCountdown cancels the countdown for an activity kind.
type StopCountdown struct {
	Kind model.ActivityKind
}

// Results hands a results payload to the rendering surface.
type Results struct {
	Action ws.Action
	Data   json.RawMessage
}

func (Send) effect()           {}
func (StartRoomPoll) effect()  {}
func (StartCountdown) effect() {}
func (StopCountdown) effect()  {}
func (Results) effect()        {}

// Reduce applies one success frame to prev and returns the next state and the
// effects to run, in order. Error frames must not be passed in. Unknown actions
// leave the state untouched. A data payload that does not decode is returned
// as an error together with the unchanged state.
func Reduce(prev State, resp *ws.Response) (State, []Effect, error) {
	switch resp.Action {
	case ws.ActionLogin:
		var data model.LoginData
		if err := resp.DecodeData(&data); err != nil {
			return prev, nil, decodeErr(resp.Action, err)
		}
		next := prev
		token := resp.SessionID
		if token == "" {
			token = data.SessionID
		}
		next.Session = model.Session{Token: token, Role: data.Role, Logged: token != ""}
		if !next.Session.Logged {
			return next, nil, nil
		}
		return next, []Effect{StartRoomPoll{}}, nil

	case ws.ActionListRooms:
		var data model.RoomListData
		if err := resp.DecodeData(&data); err != nil {
			return prev, nil, decodeErr(resp.Action, err)
		}
		next := prev
		next.Rooms = data.Rooms
		if next.Rooms == nil {
			next.Rooms = []model.RoomSummary{}
		}
		return next, nil, nil

	case ws.ActionJoinRoom:
		var data model.RoomRefData
		if err := resp.DecodeData(&data); err != nil {
			return prev, nil, decodeErr(resp.Action, err)
		}
		next := prev
		next.JoinedRoomID = data.RoomID
		return next, []Effect{Send{Action: ws.ActionListRooms}}, nil

	case ws.ActionGetExamPaper, ws.ActionStartPractice:
		kind := model.ActivityExam
		if resp.Action == ws.ActionStartPractice {
			kind = model.ActivityPractice
		}
		var data model.ActivityData
		if err := resp.DecodeData(&data); err != nil {
			return prev, nil, decodeErr(resp.Action, err)
		}
		next := prev.withActivity(data.ToActivity(kind))
		if data.EndTime == 0 {
			return next, []Effect{StopCountdown{Kind: kind}}, nil
		}
		return next, []Effect{StartCountdown{Kind: kind, EndTime: data.EndTime}}, nil

	case ws.ActionSubmitExam, ws.ActionSubmitPractice:
		kind := model.ActivityExam
		if resp.Action == ws.ActionSubmitPractice {
			kind = model.ActivityPractice
		}
		next := prev.withResults(resp.Action, resp.Data)
		// Only an accepted submission closes the activity.
		if next.Activity(kind).ID > 0 {
			next = next.MarkSubmitted(kind)
		}
		return next, []Effect{
			StopCountdown{Kind: kind},
			Results{Action: resp.Action, Data: resp.Data},
			Send{Action: ws.ActionGetUserHistory},
		}, nil

	case ws.ActionGetRoomResults, ws.ActionGetUserHistory:
		next := prev.withResults(resp.Action, resp.Data)
		return next, []Effect{Results{Action: resp.Action, Data: resp.Data}}, nil

	case ws.ActionCreateRoom:
		// Always refetch: the echo is not guaranteed to carry a complete room.
		return prev, []Effect{Send{Action: ws.ActionListRooms}}, nil

	case ws.ActionStartExam:
		var data model.RoomRefData
		if err := resp.DecodeData(&data); err != nil {
			return prev, nil, decodeErr(resp.Action, err)
		}
		status := data.Status
		if status == "" {
			status = model.RoomStatusInProgress
		}
		next := prev
		next.Rooms = make([]model.RoomSummary, len(prev.Rooms))
		for i, r := range prev.Rooms {
			if r.RoomID == data.RoomID {
				r.Status = status
			}
			next.Rooms[i] = r
		}
		return next, nil, nil
	}

	return prev, nil, nil
}

func (s State) withResults(action ws.Action, data json.RawMessage) State {
	results := make(map[ws.Action]json.RawMessage, len(s.LastResults)+1)
	for k, v := range s.LastResults {
		results[k] = v
	}
	results[action] = data
	s.LastResults = results
	return s
}

func decodeErr(action ws.Action, err error) error {
	return fmt.Errorf("%w: %s data: %v", ws.ErrMalformedFrame, action, err)
}
