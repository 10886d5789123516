package model

// LoginData is the data of a LOGIN response.
type LoginData struct {
	SessionID string `json:"session_id"`
	Role      Role   `json:"role"`
}

// RoomListData is the data of a LIST_ROOMS response.
type RoomListData struct {
	Rooms []RoomSummary `json:"rooms"`
}

// RoomRefData is the data of JOIN_ROOM, CREATE_ROOM and START_EXAM responses.
type RoomRefData struct {
	RoomID          int64      `json:"room_id"`
	RoomCode        string     `json:"room_code"`
	Status          RoomStatus `json:"status"`
	DurationSeconds int        `json:"duration_seconds"`
}

// WireQuestion is a question as the server sends it.
type WireQuestion struct {
	QuestionID   int64             `json:"question_id"`
	QuestionText string            `json:"question_text"`
	Difficulty   string            `json:"difficulty"`
	Topic        string            `json:"topic"`
	Options      map[string]string `json:"options"`
}

// ActivityData is the data of GET_EXAM_PAPER and START_PRACTICE responses.
// Exactly one of ExamID or PracticeID is set by the server.
type ActivityData struct {
	ExamID     int64          `json:"exam_id"`
	PracticeID int64          `json:"practice_id"`
	EndTime    int64          `json:"end_time"`
	Questions  []WireQuestion `json:"questions"`
}

// ToActivity converts the wire payload into a fresh client activity.
func (d ActivityData) ToActivity(kind ActivityKind) Activity {
	id := d.ExamID
	if kind == ActivityPractice {
		id = d.PracticeID
	}
	questions := make([]Question, 0, len(d.Questions))
	for _, q := range d.Questions {
		questions = append(questions, Question{
			ID:         q.QuestionID,
			Text:       q.QuestionText,
			Difficulty: q.Difficulty,
			Topic:      q.Topic,
			Options:    q.Options,
		})
	}
	return Activity{
		Kind:      kind,
		ID:        id,
		EndTime:   d.EndTime,
		Questions: questions,
	}
}
