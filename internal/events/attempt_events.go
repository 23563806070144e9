package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the attempt lifecycle events we emit
type EventType string

const (
	EventAttemptStarted        EventType = "attempt.started"
	EventAttemptSubmitted      EventType = "attempt.submitted"
	EventAttemptExpired        EventType = "attempt.expired"
	EventAttemptGraded         EventType = "attempt.graded"
	EventManualGradingRequired EventType = "grading.manual_required"
)

const (
	SourceName   = "quiz-attempt-service"
	EventVersion = "1.0"
)

// AttemptEvent is the envelope for every published event.
type AttemptEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

func NewAttemptEvent(eventType EventType, at time.Time, data interface{}) *AttemptEvent {
	return &AttemptEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: at,
		Source:    SourceName,
		Version:   EventVersion,
		Data:      data,
	}
}

// Event payloads

type AttemptStartedData struct {
	AttemptID     uint      `json:"attempt_id"`
	QuizID        uint      `json:"quiz_id"`
	QuizTitle     string    `json:"quiz_title"`
	StudentID     string    `json:"student_id"`
	AttemptNumber int       `json:"attempt_number"`
	StartedAt     time.Time `json:"started_at"`
	TimeLimit     *int      `json:"time_limit,omitempty"` // minutes
}

type AttemptSubmittedData struct {
	AttemptID     uint      `json:"attempt_id"`
	QuizID        uint      `json:"quiz_id"`
	StudentID     string    `json:"student_id"`
	AttemptNumber int       `json:"attempt_number"`
	SubmittedAt   time.Time `json:"submitted_at"`
	TimeSpent     int       `json:"time_spent"` // seconds
	IsGraded      bool      `json:"is_graded"`
	Score         float64   `json:"score"`
	MaxScore      float64   `json:"max_score"`
	IsPassed      *bool     `json:"is_passed,omitempty"`
}

type AttemptExpiredData struct {
	AttemptID     uint      `json:"attempt_id"`
	QuizID        uint      `json:"quiz_id"`
	StudentID     string    `json:"student_id"`
	AttemptNumber int       `json:"attempt_number"`
	ExpiredAt     time.Time `json:"expired_at"`
}

type ManualGradingRequiredData struct {
	AttemptID        uint   `json:"attempt_id"`
	QuizID           uint   `json:"quiz_id"`
	QuizTitle        string `json:"quiz_title"`
	StudentID        string `json:"student_id"`
	QuizOwner        string `json:"quiz_owner"`
	PendingQuestions []int  `json:"pending_questions"`
}

// AttemptGradedData carries the full score breakdown of a grading pass so
// consumers can keep the history the attempt row does not.
type AttemptGradedData struct {
	AttemptID  uint          `json:"attempt_id"`
	QuizID     uint          `json:"quiz_id"`
	StudentID  string        `json:"student_id"`
	GradedBy   string        `json:"graded_by"`
	GradedAt   time.Time     `json:"graded_at"`
	Score      float64       `json:"score"`
	MaxScore   float64       `json:"max_score"`
	Percentage float64       `json:"percentage"`
	IsPassed   *bool         `json:"is_passed,omitempty"`
	Scores     []GradedScore `json:"scores"`
}

type GradedScore struct {
	QuestionIndex int      `json:"question_index"`
	PointsEarned  float64  `json:"points_earned"`
	TeacherScore  *float64 `json:"teacher_score,omitempty"`
}
