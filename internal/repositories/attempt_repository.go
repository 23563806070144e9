package repositories

import (
	"context"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/models"
)

// AttemptRepository persists quiz attempts. Both save operations are
// conditional writes: they fail with ErrStaleAttempt when the stored version
// no longer matches attempt.Version, and bump the version on success.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error)

	// FindUnsubmitted returns the open attempt for the pair, or nil if none.
	FindUnsubmitted(ctx context.Context, studentID string, quizID uint) (*models.QuizAttempt, error)
	CountSubmitted(ctx context.Context, studentID string, quizID uint) (int, error)
	CountAll(ctx context.Context, studentID string, quizID uint) (int, error)

	// SaveIfUnsubmitted only succeeds while the stored row has no submitted_at.
	SaveIfUnsubmitted(ctx context.Context, attempt *models.QuizAttempt) error
	Save(ctx context.Context, attempt *models.QuizAttempt) error

	List(ctx context.Context, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
}
