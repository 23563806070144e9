package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/models"
	"github.com/SAP-F-2025/quiz-attempt-service/internal/repositories"
)

// ===== LOOKUPS =====

func (s *attemptService) validateActor(actor models.Actor) error {
	return validateActor(s.validator, actor)
}

func (s *attemptService) loadQuiz(ctx context.Context, quizID uint) (*models.Quiz, error) {
	return loadQuiz(ctx, s.repo, quizID)
}

func (s *attemptService) loadAttempt(ctx context.Context, attemptID uint) (*models.QuizAttempt, error) {
	return loadAttempt(ctx, s.repo, attemptID)
}

// ===== STATE TRANSITIONS =====

// expireAttempt zero-scores an attempt that ran past the quiz duration. If the
// conditional write loses, someone else already closed the attempt and the
// caller can carry on.
func (s *attemptService) expireAttempt(ctx context.Context, quiz *models.Quiz, attempt *models.QuizAttempt, now time.Time) error {
	attempt.Expire(now, quiz.PassingScore)

	if err := s.repo.Attempt().SaveIfUnsubmitted(ctx, attempt); err != nil {
		if errors.Is(err, repositories.ErrStaleAttempt) {
			s.logger.Info("Overdue attempt already closed", "attempt_id", attempt.ID)
			return nil
		}
		return internalError("expire attempt", err)
	}

	s.logger.Info("Overdue attempt expired",
		"attempt_id", attempt.ID,
		"quiz_id", quiz.ID,
		"student_id", attempt.StudentID)
	s.events.NotifyAttemptExpired(ctx, quiz, attempt)
	return nil
}

// gradeSubmission grades every submitted answer. Answers pointing at a
// question that does not exist are kept as incorrect.
func gradeSubmission(quiz *models.Quiz, submitted []SubmitAnswerRequest) ([]models.AttemptAnswer, float64, bool) {
	answers := make([]models.AttemptAnswer, 0, len(submitted))
	var total float64
	needsManual := false

	for _, in := range submitted {
		answer := models.AttemptAnswer{
			QuestionIndex: in.QuestionIndex,
			Answer:        in.Answer,
		}

		question := quiz.Question(in.QuestionIndex)
		switch {
		case question == nil:
			answer.IsCorrect = boolPtr(false)
		case question.Type.IsAutoGradable():
			result := Grade(question, in.Answer)
			answer.IsCorrect = boolPtr(result.IsCorrect)
			answer.PointsEarned = result.Points
			total += result.Points
		default:
			needsManual = true
		}

		answers = append(answers, answer)
	}

	return answers, total, needsManual
}

// ===== LISTING =====

func (s *attemptService) list(ctx context.Context, actor models.Actor, filters repositories.AttemptFilters, page, limit int) (*AttemptListResponse, error) {
	attempts, total, err := s.repo.Attempt().List(ctx, filters)
	if err != nil {
		return nil, internalError("list attempts", err)
	}

	quizzes := make(map[uint]*models.Quiz)
	summaries := make([]AttemptSummary, 0, len(attempts))
	for _, attempt := range attempts {
		quiz, ok := quizzes[attempt.QuizID]
		if !ok {
			quiz, err = s.loadQuiz(ctx, attempt.QuizID)
			if err != nil {
				return nil, err
			}
			quizzes[attempt.QuizID] = quiz
		}
		summaries = append(summaries, buildSummary(actor, quiz, attempt))
	}

	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	return &AttemptListResponse{
		Attempts: summaries,
		Pagination: PageInfo{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// ===== SHARED HELPERS =====

func validateActor(v interface{ Validate(interface{}) error }, actor models.Actor) error {
	if err := v.Validate(actor); err != nil {
		return fmt.Errorf("%w: invalid actor: %w", ErrValidationFailed, err)
	}
	return nil
}

func loadQuiz(ctx context.Context, repo repositories.Repository, quizID uint) (*models.Quiz, error) {
	quiz, err := repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, internalError("get quiz", err)
	}
	return quiz, nil
}

func loadAttempt(ctx context.Context, repo repositories.Repository, attemptID uint) (*models.QuizAttempt, error) {
	attempt, err := repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, internalError("get attempt", err)
	}
	return attempt, nil
}

func boolPtr(v bool) *bool {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}
