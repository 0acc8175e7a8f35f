package domain

import "time"

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeShortAnswer    QuestionType = "short_answer"
)

// Course carries the per-course exam settings.
type Course struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ExamMinutes int    `json:"examMinutes"`
}

// QuizPackage is a named set of questions belonging to a course.
type QuizPackage struct {
	ID          string `json:"id"`
	CourseID    string `json:"courseId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	MaxRetakes  int    `json:"maxRetakes"` // 1 means first attempt only
}

// Question is immutable once loaded for an attempt.
type Question struct {
	ID            string       `json:"id"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"` // multiple_choice only
	CorrectAnswer string       `json:"correctAnswer"`
	Points        int          `json:"points"`
	Order         int          `json:"order,omitempty"`
}

// AttemptContext identifies one timed run through a package by one student.
// StudentKey is an opaque identifier; deployments pick one concrete scheme
// (device fingerprint, phone number, account id).
type AttemptContext struct {
	AttemptID  string `json:"attemptId"`
	StudentKey string `json:"studentKey"`
	CourseID   string `json:"courseId"`
	PackageID  string `json:"packageId"`
}

// AttemptSummary is the compact view of a finished attempt, shown when a
// student is blocked from retaking.
type AttemptSummary struct {
	Score       int       `json:"score"`
	TotalPoints int       `json:"totalPoints"`
	Percentage  int       `json:"percentage"`
	TimeTaken   int       `json:"timeTaken"` // seconds
	CompletedAt time.Time `json:"completedAt"`
}

// AttemptHistory is the read-only input to the eligibility gate.
type AttemptHistory struct {
	PriorAttempts int             `json:"priorAttempts"`
	Latest        *AttemptSummary `json:"latest,omitempty"`
}

// Eligibility is the gate verdict for a student+package pair.
type Eligibility struct {
	Approved      bool            `json:"approved"`
	PriorAttempts int             `json:"priorAttempts"`
	MaxRetakes    int             `json:"maxRetakes"`
	Previous      *AttemptSummary `json:"previous,omitempty"`
}

// QuestionResult is the per-question line of a Result, in question order.
type QuestionResult struct {
	QuestionID    string `json:"questionId"`
	QuestionText  string `json:"questionText"`
	StudentAnswer string `json:"studentAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	Correct       bool   `json:"correct"`
	PointsEarned  int    `json:"pointsEarned"`
	MaxPoints     int    `json:"maxPoints"`
}

// Result is the terminal outcome of an attempt, always computed from the
// local answer ledger.
type Result struct {
	Score       int              `json:"score"`
	TotalPoints int              `json:"totalPoints"`
	Percentage  int              `json:"percentage"` // rounded, 0 when TotalPoints is 0
	Correct     int              `json:"correct"`
	Incorrect   int              `json:"incorrect"` // unanswered counts as incorrect
	TimeTaken   int              `json:"timeTaken"` // seconds
	Details     []QuestionResult `json:"details"`
}
