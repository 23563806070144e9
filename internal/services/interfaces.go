package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/models"
)

// ===== SERVICE INTERFACES =====

type AttemptService interface {
	Start(ctx context.Context, actor models.Actor, req *StartAttemptRequest) (*StartAttemptResponse, error)
	Submit(ctx context.Context, actor models.Actor, attemptID uint, req *SubmitAttemptRequest) (*SubmitAttemptResponse, error)

	Get(ctx context.Context, actor models.Actor, attemptID uint) (*AttemptDetailResponse, error)
	ListMine(ctx context.Context, actor models.Actor, filters *MyAttemptFilters) (*AttemptListResponse, error)
	List(ctx context.Context, actor models.Actor, filters *AttemptListFilters) (*AttemptListResponse, error)
}

type GradingService interface {
	GradeAttempt(ctx context.Context, actor models.Actor, attemptID uint, req *GradeAttemptRequest) (*AttemptDetailResponse, error)
	ExportResults(ctx context.Context, actor models.Actor, quizID uint) ([]byte, error)
}

// ===== REQUESTS =====

type StartAttemptRequest struct {
	QuizID uint `json:"quiz_id" validate:"required"`
}

type SubmitAnswerRequest struct {
	QuestionIndex int                `json:"question_index" validate:"min=0"`
	Answer        models.AnswerValue `json:"answer"`
}

type SubmitAttemptRequest struct {
	Answers []SubmitAnswerRequest `json:"answers" validate:"required,unique=QuestionIndex,dive"`
}

type TeacherScoreRequest struct {
	QuestionIndex   int      `json:"question_index" validate:"min=0"`
	TeacherScore    *float64 `json:"teacher_score"`
	TeacherFeedback *string  `json:"teacher_feedback" validate:"omitempty,max=2000"`
}

type GradeAttemptRequest struct {
	Answers  []TeacherScoreRequest `json:"answers" validate:"dive"`
	Feedback *string               `json:"feedback" validate:"omitempty,max=2000"`
}

type Pagination struct {
	Page  int `json:"page" form:"page"`
	Limit int `json:"limit" form:"limit"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize applies defaults and bounds, returning limit and offset.
func (p Pagination) Normalize() (page, limit, offset int) {
	page, limit = p.Page, p.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit, (page - 1) * limit
}

type MyAttemptFilters struct {
	Pagination
	QuizID    *uint `form:"quiz"`
	Submitted bool  `form:"submitted"`
}

type AttemptListFilters struct {
	Pagination
	QuizID    *uint   `form:"quiz"`
	StudentID *string `form:"student"`
	IsGraded  *bool   `form:"is_graded"`
	Submitted bool    `form:"submitted"`
}

// ===== RESPONSES =====

type QuizSummary struct {
	ID           uint     `json:"id"`
	Title        string   `json:"title"`
	TotalPoints  float64  `json:"total_points"`
	Duration     *int     `json:"duration,omitempty"`
	PassingScore *float64 `json:"passing_score,omitempty"`
}

// QuestionView is a question as shown alongside an answer. CorrectAnswers is
// only filled for staff.
type QuestionView struct {
	Question       string              `json:"question"`
	Type           models.QuestionType `json:"type"`
	Options        []string            `json:"options"`
	Points         float64             `json:"points"`
	CorrectAnswers []string            `json:"correct_answers,omitempty"`
}

type AnswerDetail struct {
	QuestionIndex   int                `json:"question_index"`
	Question        *QuestionView      `json:"question"`
	Answer          models.AnswerValue `json:"answer"`
	IsCorrect       *bool              `json:"is_correct,omitempty"`
	PointsEarned    float64            `json:"points_earned"`
	TeacherScore    *float64           `json:"teacher_score,omitempty"`
	TeacherFeedback *string            `json:"teacher_feedback,omitempty"`
}

type StartAttemptResponse struct {
	ID            uint        `json:"id"`
	Quiz          QuizSummary `json:"quiz"`
	StartedAt     time.Time   `json:"started_at"`
	AttemptNumber int         `json:"attempt_number"`
}

// SubmitAttemptResponse leaves the score fields nil when results are hidden.
type SubmitAttemptResponse struct {
	ID            uint      `json:"id"`
	SubmittedAt   time.Time `json:"submitted_at"`
	TimeSpent     int       `json:"time_spent"`
	AttemptNumber int       `json:"attempt_number"`
	IsGraded      bool      `json:"is_graded"`
	Score         *float64  `json:"score,omitempty"`
	MaxScore      *float64  `json:"max_score,omitempty"`
	Percentage    *float64  `json:"percentage,omitempty"`
	IsPassed      *bool     `json:"is_passed,omitempty"`
	Message       string    `json:"message,omitempty"`
}

type AttemptDetailResponse struct {
	ID            uint           `json:"id"`
	Quiz          QuizSummary    `json:"quiz"`
	StudentID     string         `json:"student_id"`
	Score         *float64       `json:"score,omitempty"`
	MaxScore      float64        `json:"max_score"`
	Percentage    *float64       `json:"percentage,omitempty"`
	IsPassed      *bool          `json:"is_passed,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	SubmittedAt   *time.Time     `json:"submitted_at,omitempty"`
	TimeSpent     *int           `json:"time_spent,omitempty"`
	AttemptNumber int            `json:"attempt_number"`
	IsGraded      bool           `json:"is_graded"`
	GradedBy      *string        `json:"graded_by,omitempty"`
	GradedAt      *time.Time     `json:"graded_at,omitempty"`
	Feedback      *string        `json:"feedback,omitempty"`
	Answers       []AnswerDetail `json:"answers,omitempty"`
	Message       string         `json:"message,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type AttemptSummary struct {
	ID            uint        `json:"id"`
	Quiz          QuizSummary `json:"quiz"`
	StudentID     string      `json:"student_id"`
	Score         *float64    `json:"score,omitempty"`
	MaxScore      float64     `json:"max_score"`
	Percentage    *float64    `json:"percentage,omitempty"`
	IsPassed      *bool       `json:"is_passed,omitempty"`
	StartedAt     time.Time   `json:"started_at"`
	SubmittedAt   *time.Time  `json:"submitted_at,omitempty"`
	TimeSpent     *int        `json:"time_spent,omitempty"`
	AttemptNumber int         `json:"attempt_number"`
	IsGraded      bool        `json:"is_graded"`
	CreatedAt     time.Time   `json:"created_at"`
}

type PageInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type AttemptListResponse struct {
	Attempts   []AttemptSummary `json:"attempts"`
	Pagination PageInfo         `json:"pagination"`
}

const ResultsPendingMessage = "waiting for the teacher to publish results"
