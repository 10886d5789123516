package model

// ActivityKind distinguishes the two timed activities a student can run.
type ActivityKind string

const (
	ActivityExam     ActivityKind = "exam"
	ActivityPractice ActivityKind = "practice"
)

// DefaultOption is submitted for questions left unanswered.
const DefaultOption = "A"

// Question is a question held by the client, including the locally chosen answer.
type Question struct {
	ID         int64             `json:"id"`
	Text       string            `json:"text"`
	Difficulty string            `json:"difficulty"`
	Topic      string            `json:"topic"`
	Options    map[string]string `json:"options"`
	Answer     string            `json:"answer"`
}

// Activity is a fetched exam paper or practice set with its deadline.
type Activity struct {
	Kind          ActivityKind `json:"kind"`
	ID            int64        `json:"id"`
	EndTime       int64        `json:"end_time"`
	Questions     []Question   `json:"questions"`
	AutoSubmitted bool         `json:"auto_submitted"`
	// Submitted is set once the server accepts a submission.
	Submitted     bool         `json:"submitted"`
}

// Closed reports whether the activity has already been submitted either way.
func (a Activity) Closed() bool {
	return a.AutoSubmitted || a.Submitted
}

// EmptyActivity returns the placeholder held before anything is fetched.
func EmptyActivity(kind ActivityKind) Activity {
	return Activity{Kind: kind, ID: -1}
}

// FinalAnswers builds the submission list, defaulting unanswered questions.
func (a Activity) FinalAnswers() []FinalAnswer {
	answers := make([]FinalAnswer, 0, len(a.Questions))
	for _, q := range a.Questions {
		opt := q.Answer
		if opt == "" {
			opt = DefaultOption
		}
		answers = append(answers, FinalAnswer{QuestionID: q.ID, SelectedOption: opt})
	}
	return answers
}

// Clone returns a deep copy so callers may mutate answers freely.
func (a Activity) Clone() Activity {
	out := a
	out.Questions = make([]Question, len(a.Questions))
	copy(out.Questions, a.Questions)
	return out
}
