package repositories

import (
	"context"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type AttemptFilters struct {
	QuizID        *uint   `json:"quiz_id"`
	StudentID     *string `json:"student_id"`
	IsGraded      *bool   `json:"is_graded"`
	SubmittedOnly bool    `json:"submitted_only"`
	Limit         int     `json:"limit"`
	Offset        int     `json:"offset"`
}

// ===== REPOSITORIES =====

// QuizRepository reads quiz definitions owned by the course service.
type QuizRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
}

// Repository groups the stores the attempt services depend on.
type Repository interface {
	Quiz() QuizRepository
	Attempt() AttemptRepository
}

type repository struct {
	quiz    QuizRepository
	attempt AttemptRepository
}

func NewRepository(quiz QuizRepository, attempt AttemptRepository) Repository {
	return &repository{quiz: quiz, attempt: attempt}
}

func (r *repository) Quiz() QuizRepository {
	return r.quiz
}

func (r *repository) Attempt() AttemptRepository {
	return r.attempt
}
