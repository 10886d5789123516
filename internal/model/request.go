package model

// LoginRequest is the payload for LOGIN.
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=200"`
}

// DifficultyDistribution splits a room's question count by difficulty.
type DifficultyDistribution struct {
	Easy   int `json:"easy" binding:"min=0"`
	Medium int `json:"medium" binding:"min=0"`
	Hard   int `json:"hard" binding:"min=0"`
}

// QuestionSettings controls how the server draws an exam paper for a room.
type QuestionSettings struct {
	TotalQuestions         int                    `json:"total_questions" binding:"required,min=1,max=200"`
	DifficultyDistribution DifficultyDistribution `json:"difficulty_distribution"`
}

// CreateRoomRequest is the payload for CREATE_ROOM.
type CreateRoomRequest struct {
	RoomName         string           `json:"room_name" binding:"required,min=1,max=255"`
	Description      string           `json:"description" binding:"max=2000"`
	DurationMinutes  int              `json:"duration_minutes" binding:"required,min=1,max=480"`
	RoomPass         string           `json:"room_pass" binding:"max=64"`
	QuestionSettings QuestionSettings `json:"question_settings"`
}

// JoinRoomRequest is the payload for JOIN_ROOM.
type JoinRoomRequest struct {
	RoomID   int64  `json:"room_id" binding:"required,gt=0"`
	RoomPass string `json:"room_pass" binding:"required,max=64"`
}

// RoomRequest carries a single room id (START_EXAM, GET_EXAM_PAPER, GET_ROOM_RESULTS).
type RoomRequest struct {
	RoomID int64 `json:"room_id" binding:"required,gt=0"`
}

// StartPracticeRequest is the payload for START_PRACTICE.
type StartPracticeRequest struct {
	QuestionCount    int      `json:"question_count" binding:"required,min=1,max=100"`
	DurationMinutes  int      `json:"duration_minutes" binding:"required,min=1,max=480"`
	DifficultyFilter []string `json:"difficulty_filter" binding:"dive,oneof=EASY MEDIUM HARD"`
	TopicFilter      []string `json:"topic_filter"`
}

// FinalAnswer is one entry of a submission.
type FinalAnswer struct {
	QuestionID     int64  `json:"question_id"`
	SelectedOption string `json:"selected_option"`
}

// SubmitExamRequest is the payload for SUBMIT_EXAM.
type SubmitExamRequest struct {
	ExamID       int64         `json:"exam_id" binding:"required,gt=0"`
	FinalAnswers []FinalAnswer `json:"final_answers"`
}

// SubmitPracticeRequest is the payload for SUBMIT_PRACTICE.
type SubmitPracticeRequest struct {
	PracticeID   int64         `json:"practice_id" binding:"required,gt=0"`
	FinalAnswers []FinalAnswer `json:"final_answers"`
}

// EmptyRequest is sent for actions without parameters (LIST_ROOMS, GET_USER_HISTORY).
type EmptyRequest struct{}

// AnswerRequest records a locally chosen option. It is never sent on the wire.
type AnswerRequest struct {
	QuestionID int64  `json:"question_id" binding:"required"`
	Option     string `json:"option" binding:"required,max=4"`
}
