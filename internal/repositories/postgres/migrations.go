package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/models"
)

// openAttemptIndex allows at most one unsubmitted attempt per student and quiz.
const openAttemptIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_quiz_attempts_open
	ON quiz_attempts (quiz_id, student_id) WHERE submitted_at IS NULL`

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Quiz{}, &models.QuizQuestion{}, &models.QuizAttempt{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec(openAttemptIndex).Error; err != nil {
		return fmt.Errorf("create open attempt index: %w", err)
	}
	return nil
}
