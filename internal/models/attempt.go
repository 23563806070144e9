package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptState string

const (
	AttemptNotStarted        AttemptState = "not_started"
	AttemptInProgress        AttemptState = "in_progress"
	AttemptSubmittedUngraded AttemptState = "submitted_ungraded"
	AttemptGraded            AttemptState = "graded"
)

type AttemptAnswer struct {
	QuestionIndex   int         `json:"question_index"`
	Answer          AnswerValue `json:"answer"`
	IsCorrect       *bool       `json:"is_correct,omitempty"`
	PointsEarned    float64     `json:"points_earned"`
	TeacherScore    *float64    `json:"teacher_score,omitempty"`
	TeacherFeedback *string     `json:"teacher_feedback,omitempty"`
}

// EffectiveScore is the teacher override when present, otherwise the
// auto-graded points.
func (a AttemptAnswer) EffectiveScore() float64 {
	if a.TeacherScore != nil {
		return *a.TeacherScore
	}
	return a.PointsEarned
}

// QuizAttempt records one student's run through a quiz. Answers live in a JSON
// column on the attempt row so a submission is a single conditional UPDATE.
type QuizAttempt struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	QuizID        uint   `json:"quiz_id" gorm:"not null;uniqueIndex:idx_quiz_student_attempt_number"`
	StudentID     string `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_quiz_student_attempt_number;index"`
	AttemptNumber int    `json:"attempt_number" gorm:"not null;uniqueIndex:idx_quiz_student_attempt_number"`

	Answers datatypes.JSONSlice[AttemptAnswer] `json:"answers"`

	Score      float64 `json:"score" gorm:"not null"`
	MaxScore   float64 `json:"max_score" gorm:"not null"`
	Percentage float64 `json:"percentage" gorm:"not null"`
	IsPassed   *bool   `json:"is_passed,omitempty"`

	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty" gorm:"index"`
	TimeSpent   *int       `json:"time_spent,omitempty"` // seconds

	IsGraded bool       `json:"is_graded" gorm:"not null;index"`
	GradedBy *string    `json:"graded_by,omitempty" gorm:"size:255"`
	GradedAt *time.Time `json:"graded_at,omitempty"`
	Feedback *string    `json:"feedback,omitempty" gorm:"type:text"`

	// Version is bumped by the repository on every save.
	Version int `json:"version" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) SetScore(score float64) {
	a.Score = score
	a.recomputePercentage()
}

func (a *QuizAttempt) SetMaxScore(maxScore float64) {
	a.MaxScore = maxScore
	a.recomputePercentage()
}

func (a *QuizAttempt) recomputePercentage() {
	if a.MaxScore > 0 {
		a.Percentage = a.Score / a.MaxScore * 100
		return
	}
	a.Percentage = 0
}

// EffectiveScore sums the effective score of every answer.
func (a *QuizAttempt) EffectiveScore() float64 {
	var total float64
	for _, answer := range a.Answers {
		total += answer.EffectiveScore()
	}
	return total
}

func (a *QuizAttempt) IsSubmitted() bool {
	return a.SubmittedAt != nil
}

func (a *QuizAttempt) State() AttemptState {
	switch {
	case a == nil:
		return AttemptNotStarted
	case a.SubmittedAt == nil:
		return AttemptInProgress
	case !a.IsGraded:
		return AttemptSubmittedUngraded
	default:
		return AttemptGraded
	}
}

// AnswerFor returns the answer recorded for a question index, or nil.
func (a *QuizAttempt) AnswerFor(questionIndex int) *AttemptAnswer {
	for i := range a.Answers {
		if a.Answers[i].QuestionIndex == questionIndex {
			return &a.Answers[i]
		}
	}
	return nil
}

// Finalize stamps the submission time and elapsed seconds.
func (a *QuizAttempt) Finalize(now time.Time) {
	submittedAt := now
	elapsed := int(now.Sub(a.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	a.SubmittedAt = &submittedAt
	a.TimeSpent = &elapsed
}

// Expire closes an abandoned attempt with a zero score. The attempt counts as
// submitted and graded afterwards.
func (a *QuizAttempt) Expire(now time.Time, passingScore *float64) {
	a.Finalize(now)
	a.SetScore(0)
	a.IsGraded = true
	if passingScore != nil {
		a.IsPassed = boolPtr(false)
	} else {
		a.IsPassed = nil
	}
}

// UpdatePassed recomputes the pass flag. It stays undefined until grading is
// complete or when the quiz has no passing score.
func (a *QuizAttempt) UpdatePassed(passingScore *float64) {
	if passingScore == nil || !a.IsGraded {
		a.IsPassed = nil
		return
	}
	a.IsPassed = boolPtr(a.Score >= *passingScore)
}

// MarkGraded finalizes a grading pass. Re-grading overwrites the previous pass.
func (a *QuizAttempt) MarkGraded(graderID string, now time.Time, passingScore *float64) {
	gradedAt := now
	a.SetScore(a.EffectiveScore())
	a.IsGraded = true
	a.GradedBy = &graderID
	a.GradedAt = &gradedAt
	a.UpdatePassed(passingScore)
}

func boolPtr(v bool) *bool {
	return &v
}
