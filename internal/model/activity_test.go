package model

import (
	"reflect"
	"testing"
)

func TestFinalAnswersDefaultsUnanswered(t *testing.T) {
	a := Activity{
		Kind: ActivityExam,
		ID:   3,
		Questions: []Question{
			{ID: 1, Answer: "C"},
			{ID: 2},
			{ID: 3, Answer: "B"},
		},
	}

	got := a.FinalAnswers()
	want := []FinalAnswer{
		{QuestionID: 1, SelectedOption: "C"},
		{QuestionID: 2, SelectedOption: "A"},
		{QuestionID: 3, SelectedOption: "B"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FinalAnswers() = %+v, want %+v", got, want)
	}
}

func TestCloneDoesNotShareQuestions(t *testing.T) {
	a := Activity{Questions: []Question{{ID: 1}}}
	b := a.Clone()
	b.Questions[0].Answer = "D"
	if a.Questions[0].Answer != "" {
		t.Fatal("clone shares question storage with the original")
	}
}

func TestActivityDataToActivity(t *testing.T) {
	d := ActivityData{
		PracticeID: 9,
		ExamID:     4,
		EndTime:    1700000000,
		Questions: []WireQuestion{
			{QuestionID: 11, QuestionText: "What is TCP?", Difficulty: "EASY", Topic: "Networking",
				Options: map[string]string{"B": "b", "A": "a"}},
		},
	}

	exam := d.ToActivity(ActivityExam)
	if exam.ID != 4 || exam.Kind != ActivityExam {
		t.Errorf("exam activity = %+v", exam)
	}

	practice := d.ToActivity(ActivityPractice)
	if practice.ID != 9 || practice.EndTime != 1700000000 || practice.AutoSubmitted {
		t.Errorf("practice activity = %+v", practice)
	}
	if practice.Questions[0].Text != "What is TCP?" || practice.Questions[0].Answer != "" {
		t.Errorf("question = %+v", practice.Questions[0])
	}
}

func TestRoomJoinable(t *testing.T) {
	tests := []struct {
		status RoomStatus
		want   bool
	}{
		{RoomStatusWaiting, true},
		{RoomStatusInProgress, true},
		{RoomStatusFinished, false},
		{"ARCHIVED", false},
	}
	for _, tt := range tests {
		if got := (RoomSummary{Status: tt.status}).Joinable(); got != tt.want {
			t.Errorf("Joinable(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
