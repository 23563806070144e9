package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	Checkboxes     QuestionType = "checkboxes"
	ShortAnswer    QuestionType = "short_answer"
	Essay          QuestionType = "essay"
)

func (t QuestionType) IsValid() bool {
	switch t {
	case MultipleChoice, TrueFalse, Checkboxes, ShortAnswer, Essay:
		return true
	}
	return false
}

// IsAutoGradable reports whether correctness can be decided from the
// correct-answer set alone. Free-text types need a teacher.
func (t QuestionType) IsAutoGradable() bool {
	switch t {
	case MultipleChoice, TrueFalse, Checkboxes:
		return true
	}
	return false
}

// Quiz is owned by the course service; this service only reads it.
type Quiz struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200"`
	Description *string `json:"description,omitempty" gorm:"type:text"`

	Questions []QuizQuestion `json:"questions" gorm:"foreignKey:QuizID"`

	PassingScore           *float64   `json:"passing_score,omitempty"`
	Duration               *int       `json:"duration,omitempty"` // minutes, nil = unlimited
	MaxAttempts            int        `json:"max_attempts" gorm:"not null"` // 0 = unlimited
	ShowResultsImmediately bool       `json:"show_results_immediately" gorm:"not null"`
	AvailableFrom          *time.Time `json:"available_from,omitempty"`
	AvailableUntil         *time.Time `json:"available_until,omitempty"`
	IsActive               bool       `json:"is_active" gorm:"not null;index"`

	CreatedBy string    `json:"created_by" gorm:"size:255;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

type QuizQuestion struct {
	ID             uint                        `json:"id" gorm:"primaryKey"`
	QuizID         uint                        `json:"quiz_id" gorm:"not null;index"`
	Question       string                      `json:"question" gorm:"type:text;not null"`
	Type           QuestionType                `json:"type" gorm:"not null;size:20"`
	Options        datatypes.JSONSlice[string] `json:"options,omitempty"`
	CorrectAnswers datatypes.JSONSlice[string] `json:"correct_answers,omitempty"`
	Points         float64                     `json:"points" gorm:"not null"`
	Order          int                         `json:"order" gorm:"column:position;not null"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// TotalPoints is always derived from the questions, never stored.
func (q *Quiz) TotalPoints() float64 {
	var total float64
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// Question returns the question at a 0-based position, or nil.
func (q *Quiz) Question(index int) *QuizQuestion {
	if index < 0 || index >= len(q.Questions) {
		return nil
	}
	return &q.Questions[index]
}

func (q *Quiz) HasDuration() bool {
	return q.Duration != nil && *q.Duration > 0
}

func (q *Quiz) TimeLimit() time.Duration {
	if !q.HasDuration() {
		return 0
	}
	return time.Duration(*q.Duration) * time.Minute
}

func (q *Quiz) NotYetOpen(now time.Time) bool {
	return q.AvailableFrom != nil && q.AvailableFrom.After(now)
}

func (q *Quiz) Closed(now time.Time) bool {
	return q.AvailableUntil != nil && q.AvailableUntil.Before(now)
}

// Overdue reports whether an attempt started at startedAt has run past the
// quiz duration. Quizzes without a duration never run over.
func (q *Quiz) Overdue(startedAt, now time.Time) bool {
	if !q.HasDuration() {
		return false
	}
	return now.Sub(startedAt) > q.TimeLimit()
}
