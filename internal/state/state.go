// Package state holds the client's single owned view of the quiz session.
// Values are treated as immutable: every mutation returns a new State.
package state

import (
	"encoding/json"
	"errors"

	"github.com/stemsi/exstem-quizclient/internal/model"
	ws "github.com/stemsi/exstem-quizclient/internal/websocket"
)

var (
	ErrNoRoomSelected  = errors.New("no room selected")
	ErrNotJoined       = errors.New("selected room has not been joined")
	ErrUnknownRoom     = errors.New("room is not in the current room list")
	ErrNoActivity      = errors.New("no active activity")
	ErrActivityClosed  = errors.New("activity already submitted")
	ErrUnknownQuestion = errors.New("question is not part of the activity")
	ErrUnknownOption   = errors.New("option is not offered by the question")
)

// State is everything the client believes about its session.
type State struct {
	Session          model.Session                 `json:"session"`
	Rooms            []model.RoomSummary           `json:"rooms"`
	SelectedRoomID   int64                         `json:"selected_room_id"`
	SelectedRoomName string                        `json:"selected_room_name"`
	JoinedRoomID     int64                         `json:"joined_room_id"`
	Exam             model.Activity                `json:"exam"`
	Practice         model.Activity                `json:"practice"`
	LastResults      map[ws.Action]json.RawMessage `json:"last_results"`
}

// New returns the logged-out initial state.
func New() State {
	return State{
		Rooms:       []model.RoomSummary{},
		Exam:        model.EmptyActivity(model.ActivityExam),
		Practice:    model.EmptyActivity(model.ActivityPractice),
		LastResults: map[ws.Action]json.RawMessage{},
	}
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s State) Clone() State {
	out := s
	out.Rooms = append([]model.RoomSummary(nil), s.Rooms...)
	if out.Rooms == nil {
		out.Rooms = []model.RoomSummary{}
	}
	out.Exam = s.Exam.Clone()
	out.Practice = s.Practice.Clone()
	out.LastResults = make(map[ws.Action]json.RawMessage, len(s.LastResults))
	for k, v := range s.LastResults {
		out.LastResults[k] = v
	}
	return out
}

// Lobby returns rooms a student may join or observe.
func (s State) Lobby() []model.RoomSummary {
	lobby := make([]model.RoomSummary, 0, len(s.Rooms))
	for _, r := range s.Rooms {
		if r.Joinable() {
			lobby = append(lobby, r)
		}
	}
	return lobby
}

// Room looks a room up by id.
func (s State) Room(id int64) (model.RoomSummary, bool) {
	for _, r := range s.Rooms {
		if r.RoomID == id {
			return r, true
		}
	}
	return model.RoomSummary{}, false
}

// Activity returns the activity of the given kind.
func (s State) Activity(kind model.ActivityKind) model.Activity {
	if kind == model.ActivityPractice {
		return s.Practice
	}
	return s.Exam
}

func (s State) withActivity(a model.Activity) State {
	if a.Kind == model.ActivityPractice {
		s.Practice = a
	} else {
		s.Exam = a
	}
	return s
}

// Joined reports whether the selected room is also the joined room.
func (s State) Joined() bool {
	return s.SelectedRoomID != 0 && s.JoinedRoomID == s.SelectedRoomID
}

// CheckExamAdmission is the client-side check before fetching or submitting an exam.
func (s State) CheckExamAdmission() error {
	if s.SelectedRoomID == 0 {
		return ErrNoRoomSelected
	}
	if !s.Joined() {
		return ErrNotJoined
	}
	return nil
}

// CanAutoSubmit reports whether an expired activity may still be submitted.
// Exams additionally require the joined room to match the selected room.
func (s State) CanAutoSubmit(kind model.ActivityKind) bool {
	a := s.Activity(kind)
	if a.Closed() || a.ID <= 0 {
		return false
	}
	if kind == model.ActivityExam && s.JoinedRoomID != s.SelectedRoomID {
		return false
	}
	return true
}

// SelectRoom marks a listed room as the student's current choice.
func (s State) SelectRoom(id int64) (State, error) {
	r, ok := s.Room(id)
	if !ok {
		return s, ErrUnknownRoom
	}
	s.SelectedRoomID = r.RoomID
	s.SelectedRoomName = r.RoomName
	return s, nil
}

// SetAnswer records the student's option for one question.
func (s State) SetAnswer(kind model.ActivityKind, questionID int64, option string) (State, error) {
	a := s.Activity(kind)
	if a.ID <= 0 {
		return s, ErrNoActivity
	}
	if a.Closed() {
		return s, ErrActivityClosed
	}
	a = a.Clone()
	for i := range a.Questions {
		if a.Questions[i].ID != questionID {
			continue
		}
		if len(a.Questions[i].Options) > 0 {
			if _, ok := a.Questions[i].Options[option]; !ok {
				return s, ErrUnknownOption
			}
		}
		a.Questions[i].Answer = option
		return s.withActivity(a), nil
	}
	return s, ErrUnknownQuestion
}

// MarkAutoSubmitted flips the auto-submit guard of the given activity.
func (s State) MarkAutoSubmitted(kind model.ActivityKind) State {
	a := s.Activity(kind)
	a.AutoSubmitted = true
	return s.withActivity(a)
}

// MarkSubmitted records that the server accepted a submission of the given activity.
func (s State) MarkSubmitted(kind model.ActivityKind) State {
	a := s.Activity(kind)
	a.Submitted = true
	return s.withActivity(a)
}
