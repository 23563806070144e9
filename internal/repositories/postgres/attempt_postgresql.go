package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/models"
	"github.com/SAP-F-2025/quiz-attempt-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	if attempt.Version == 0 {
		attempt.Version = 1
	}
	if err := a.db.WithContext(ctx).Create(attempt).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %v", repositories.ErrDuplicateAttempt, err)
		}
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("get attempt %d: %w", id, err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) FindUnsubmitted(ctx context.Context, studentID string, quizID uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	err := a.db.WithContext(ctx).
		Where("student_id = ? AND quiz_id = ? AND submitted_at IS NULL", studentID, quizID).
		Order("started_at DESC").
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find open attempt: %w", err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) CountSubmitted(ctx context.Context, studentID string, quizID uint) (int, error) {
	var count int64
	err := a.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Where("student_id = ? AND quiz_id = ? AND submitted_at IS NOT NULL", studentID, quizID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count submitted attempts: %w", err)
	}
	return int(count), nil
}

func (a *AttemptPostgreSQL) CountAll(ctx context.Context, studentID string, quizID uint) (int, error) {
	var count int64
	err := a.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return int(count), nil
}

func (a *AttemptPostgreSQL) SaveIfUnsubmitted(ctx context.Context, attempt *models.QuizAttempt) error {
	return a.conditionalSave(ctx, attempt, true)
}

func (a *AttemptPostgreSQL) Save(ctx context.Context, attempt *models.QuizAttempt) error {
	return a.conditionalSave(ctx, attempt, false)
}

// conditionalSave writes every mutable column in one UPDATE guarded by the
// version read earlier. attempt_number is never part of the update.
func (a *AttemptPostgreSQL) conditionalSave(ctx context.Context, attempt *models.QuizAttempt, requireOpen bool) error {
	now := time.Now().UTC()
	nextVersion := attempt.Version + 1

	query := a.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Where("id = ? AND version = ?", attempt.ID, attempt.Version)
	if requireOpen {
		query = query.Where("submitted_at IS NULL")
	}

	result := query.Updates(map[string]interface{}{
		"answers":      attempt.Answers,
		"score":        attempt.Score,
		"max_score":    attempt.MaxScore,
		"percentage":   attempt.Percentage,
		"is_passed":    attempt.IsPassed,
		"submitted_at": attempt.SubmittedAt,
		"time_spent":   attempt.TimeSpent,
		"is_graded":    attempt.IsGraded,
		"graded_by":    attempt.GradedBy,
		"graded_at":    attempt.GradedAt,
		"feedback":     attempt.Feedback,
		"version":      nextVersion,
		"updated_at":   now,
	})
	if result.Error != nil {
		return fmt.Errorf("save attempt %d: %w", attempt.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrStaleAttempt
	}

	attempt.Version = nextVersion
	attempt.UpdatedAt = now
	return nil
}

func (a *AttemptPostgreSQL) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	var attempts []*models.QuizAttempt
	var total int64

	// apply filter first
	query := a.db.WithContext(ctx).Model(&models.QuizAttempt{})
	query = applyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count attempts: %w", err)
	}

	query = query.Order("created_at DESC").Order("id DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, total, nil
}

func applyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.QuizID != nil {
		query = query.Where("quiz_id = ?", *filters.QuizID)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.IsGraded != nil {
		query = query.Where("is_graded = ?", *filters.IsGraded)
	}
	if filters.SubmittedOnly {
		query = query.Where("submitted_at IS NOT NULL")
	}
	return query
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
