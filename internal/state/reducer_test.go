package state

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/stemsi/exstem-quizclient/internal/model"
	ws "github.com/stemsi/exstem-quizclient/internal/websocket"
)

func frame(t *testing.T, action ws.Action, data any) *ws.Response {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	return &ws.Response{Action: action, Status: "OK", Data: raw}
}

func roomsFixture() []model.RoomSummary {
	return []model.RoomSummary{
		{RoomID: 1, RoomName: "Networking 101", RoomCode: "NET1", Status: model.RoomStatusWaiting, DurationSeconds: 1800, ParticipantCount: 3},
		{RoomID: 2, RoomName: "Sockets", RoomCode: "SCK2", Status: model.RoomStatusInProgress, DurationSeconds: 600, ParticipantCount: 8},
		{RoomID: 3, RoomName: "Archive", RoomCode: "ARC3", Status: model.RoomStatusFinished, DurationSeconds: 900},
	}
}

func TestReduceLoginStartsPoll(t *testing.T) {
	next, effects, err := Reduce(New(), &ws.Response{
		Action:    ws.ActionLogin,
		SessionID: "abcdef0123456789",
		Data:      json.RawMessage(`{"role":"STUDENT"}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !next.Session.Logged || next.Session.Token != "abcdef0123456789" || next.Session.Role != model.RoleStudent {
		t.Errorf("session = %+v", next.Session)
	}
	if !reflect.DeepEqual(effects, []Effect{StartRoomPoll{}}) {
		t.Errorf("effects = %#v", effects)
	}
}

func TestReduceLoginTokenFromData(t *testing.T) {
	next, _, err := Reduce(New(), frame(t, ws.ActionLogin, map[string]string{"session_id": "tok", "role": "ADMIN"}))
	if err != nil {
		t.Fatal(err)
	}
	if next.Session.Token != "tok" || next.Session.Role != model.RoleAdmin {
		t.Errorf("session = %+v", next.Session)
	}
}

func TestReduceListRoomsReplacesWholesale(t *testing.T) {
	sequences := [][]model.RoomSummary{
		roomsFixture(),
		{{RoomID: 9, RoomName: "Only", Status: model.RoomStatusWaiting}},
		{},
		roomsFixture()[1:],
	}

	s := New()
	for i, rooms := range sequences {
		var err error
		s, _, err = Reduce(s, frame(t, ws.ActionListRooms, model.RoomListData{Rooms: rooms}))
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(s.Rooms, rooms) {
			t.Fatalf("step %d: rooms = %+v, want %+v", i, s.Rooms, rooms)
		}
	}
}

func TestReduceListRoomsMissingRooms(t *testing.T) {
	s := New()
	s.Rooms = roomsFixture()
	next, _, err := Reduce(s, frame(t, ws.ActionListRooms, map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if len(next.Rooms) != 0 {
		t.Errorf("rooms = %+v, want empty", next.Rooms)
	}
}

func TestLobbyView(t *testing.T) {
	s := New()
	s.Rooms = roomsFixture()
	lobby := s.Lobby()
	if len(lobby) != 2 || lobby[0].RoomID != 1 || lobby[1].RoomID != 2 {
		t.Errorf("lobby = %+v", lobby)
	}
}

func TestReduceStartExamPatchesOnlyStatus(t *testing.T) {
	s := New()
	s.Rooms = roomsFixture()
	before := append([]model.RoomSummary(nil), s.Rooms...)

	next, effects, err := Reduce(s, frame(t, ws.ActionStartExam, map[string]any{"room_id": 1}))
	if err != nil {
		t.Fatal(err)
	}
	if len(effects) != 0 {
		t.Errorf("effects = %#v", effects)
	}

	want := append([]model.RoomSummary(nil), before...)
	want[0].Status = model.RoomStatusInProgress
	if !reflect.DeepEqual(next.Rooms, want) {
		t.Errorf("rooms = %+v, want %+v", next.Rooms, want)
	}
	if !reflect.DeepEqual(s.Rooms, before) {
		t.Error("Reduce mutated the previous state's rooms")
	}
}

func TestReduceStartExamExplicitStatus(t *testing.T) {
	s := New()
	s.Rooms = roomsFixture()
	next, _, _ := Reduce(s, frame(t, ws.ActionStartExam, map[string]any{"room_id": 2, "status": "FINISHED"}))
	if next.Rooms[1].Status != model.RoomStatusFinished {
		t.Errorf("status = %s", next.Rooms[1].Status)
	}
}

func TestReduceJoinRoomChainsOneListRooms(t *testing.T) {
	next, effects, err := Reduce(New(), frame(t, ws.ActionJoinRoom, map[string]any{"room_id": 7}))
	if err != nil {
		t.Fatal(err)
	}
	if next.JoinedRoomID != 7 {
		t.Errorf("JoinedRoomID = %d", next.JoinedRoomID)
	}
	want := []Effect{Send{Action: ws.ActionListRooms}}
	if !reflect.DeepEqual(effects, want) {
		t.Errorf("effects = %#v, want %#v", effects, want)
	}
}

func TestReduceExamPaperReplacesActivity(t *testing.T) {
	s := New()
	s.Exam = model.Activity{Kind: model.ActivityExam, ID: 1, AutoSubmitted: true,
		Questions: []model.Question{{ID: 100, Answer: "B"}}}

	next, effects, err := Reduce(s, frame(t, ws.ActionGetExamPaper, model.ActivityData{
		ExamID:  2,
		EndTime: 1_700_000_100,
		Questions: []model.WireQuestion{
			{QuestionID: 200, QuestionText: "OSI layers?", Options: map[string]string{"A": "5", "B": "7"}},
		},
	}))
	if err != nil {
		t.Fatal(err)
	}
	if next.Exam.ID != 2 || next.Exam.AutoSubmitted || len(next.Exam.Questions) != 1 || next.Exam.Questions[0].ID != 200 {
		t.Errorf("exam = %+v", next.Exam)
	}
	want := []Effect{StartCountdown{Kind: model.ActivityExam, EndTime: 1_700_000_100}}
	if !reflect.DeepEqual(effects, want) {
		t.Errorf("effects = %#v", effects)
	}
}

func TestReducePracticeWithoutEndTimeStopsCountdown(t *testing.T) {
	next, effects, err := Reduce(New(), frame(t, ws.ActionStartPractice, model.ActivityData{PracticeID: 4}))
	if err != nil {
		t.Fatal(err)
	}
	if next.Practice.ID != 4 {
		t.Errorf("practice = %+v", next.Practice)
	}
	if !reflect.DeepEqual(effects, []Effect{StopCountdown{Kind: model.ActivityPractice}}) {
		t.Errorf("effects = %#v", effects)
	}
}

func TestReduceSubmitChainsHistory(t *testing.T) {
	resp := frame(t, ws.ActionSubmitExam, map[string]any{"score": 80})
	next, effects, err := Reduce(New(), resp)
	if err != nil {
		t.Fatal(err)
	}
	if string(next.LastResults[ws.ActionSubmitExam]) != `{"score":80}` {
		t.Errorf("last results = %s", next.LastResults[ws.ActionSubmitExam])
	}
	want := []Effect{
		StopCountdown{Kind: model.ActivityExam},
		Results{Action: ws.ActionSubmitExam, Data: resp.Data},
		Send{Action: ws.ActionGetUserHistory},
	}
	if !reflect.DeepEqual(effects, want) {
		t.Errorf("effects = %#v", effects)
	}
}

func TestReduceSubmitClosesActivity(t *testing.T) {
	s := New()
	s.Practice = model.Activity{Kind: model.ActivityPractice, ID: 8,
		Questions: []model.Question{{ID: 10, Answer: "A"}}}
	if s.Practice.Closed() {
		t.Fatal("fresh practice already closed")
	}

	next, _, err := Reduce(s, frame(t, ws.ActionSubmitPractice, map[string]any{"score": 100}))
	if err != nil {
		t.Fatal(err)
	}
	if !next.Practice.Submitted {
		t.Error("accepted submission did not mark practice submitted")
	}
	if next.Exam.Submitted {
		t.Error("exam marked submitted by a practice result")
	}
	if s.Practice.Submitted {
		t.Error("reducer mutated previous state")
	}
}

func TestReduceResultsQueriesDoNotChain(t *testing.T) {
	for _, action := range []ws.Action{ws.ActionGetRoomResults, ws.ActionGetUserHistory} {
		_, effects, err := Reduce(New(), frame(t, action, []int{1}))
		if err != nil {
			t.Fatal(err)
		}
		if len(effects) != 1 {
			t.Fatalf("%s effects = %#v", action, effects)
		}
		if _, ok := effects[0].(Results); !ok {
			t.Errorf("%s effect = %#v", action, effects[0])
		}
	}
}

func TestReduceCreateRoomRefetches(t *testing.T) {
	s := New()
	s.Rooms = roomsFixture()
	next, effects, err := Reduce(s, frame(t, ws.ActionCreateRoom, map[string]any{"room_id": 10, "room_code": "NEW"}))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(next.Rooms, s.Rooms) {
		t.Error("CREATE_ROOM must not synthesize rooms locally")
	}
	if !reflect.DeepEqual(effects, []Effect{Send{Action: ws.ActionListRooms}}) {
		t.Errorf("effects = %#v", effects)
	}
}

func TestReduceUnknownActionIsNoop(t *testing.T) {
	s := New()
	s.Rooms = roomsFixture()
	next, effects, err := Reduce(s, frame(t, "ROOM_STATUS_PUSH", map[string]any{"room_id": 1}))
	if err != nil {
		t.Fatal(err)
	}
	if effects != nil || !reflect.DeepEqual(next, s) {
		t.Errorf("unknown action changed state or produced effects: %#v", effects)
	}
}

func TestReduceBadDataKeepsState(t *testing.T) {
	s := New()
	s.Rooms = roomsFixture()
	next, _, err := Reduce(s, &ws.Response{Action: ws.ActionListRooms, Data: json.RawMessage(`{"rooms":"nope"}`)})
	if !errors.Is(err, ws.ErrMalformedFrame) {
		t.Fatalf("err = %v", err)
	}
	if !reflect.DeepEqual(next, s) {
		t.Error("state changed on undecodable data")
	}
}
