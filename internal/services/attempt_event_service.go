package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/events"
	"github.com/SAP-F-2025/quiz-attempt-service/internal/models"
)

// AttemptEventService turns attempt transitions into published events.
// Attempts are already persisted when these run, so a failed publish is
// logged and never surfaced to the caller.
type AttemptEventService interface {
	NotifyAttemptStarted(ctx context.Context, quiz *models.Quiz, attempt *models.QuizAttempt)
	NotifyAttemptSubmitted(ctx context.Context, quiz *models.Quiz, attempt *models.QuizAttempt)
	NotifyAttemptExpired(ctx context.Context, quiz *models.Quiz, attempt *models.QuizAttempt)
	NotifyAttemptGraded(ctx context.Context, quiz *models.Quiz, attempt *models.QuizAttempt)
	NotifyManualGradingRequired(ctx context.Context, quiz *models.Quiz, attempt *models.QuizAttempt)
}

type attemptEventService struct {
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewAttemptEventService(eventPublisher events.EventPublisher, logger *slog.Logger) AttemptEventService {
	return &attemptEventService{
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *attemptEventService) NotifyAttemptStarted(ctx context.Context, quiz *models.Quiz, attempt *models.QuizAttempt) {
	s.publish(ctx, events.NewAttemptEvent(events.EventAttemptStarted, attempt.StartedAt, events.AttemptStartedData{
		AttemptID:     attempt.ID,
		QuizID:        quiz.ID,
		QuizTitle:     quiz.Title,
		StudentID:     attempt.StudentID,
		AttemptNumber: attempt.AttemptNumber,
		StartedAt:     attempt.StartedAt,
		TimeLimit:     quiz.Duration,
	}))
}

func (s *attemptEventService) NotifyAttemptSubmitted(ctx context.Context, quiz *models.Quiz, attempt *models.QuizAttempt) {
	data := events.AttemptSubmittedData{
		AttemptID:     attempt.ID,
		QuizID:        quiz.ID,
		StudentID:     attempt.StudentID,
		AttemptNumber: attempt.AttemptNumber,
		IsGraded:      attempt.IsGraded,
		Score:         attempt.Score,
		MaxScore:      attempt.MaxScore,
		IsPassed:      attempt.IsPassed,
	}
	if attempt.SubmittedAt != nil {
		data.SubmittedAt = *attempt.SubmittedAt
	}
	if attempt.TimeSpent != nil {
		data.TimeSpent = *attempt.TimeSpent
	}
	s.publish(ctx, events.NewAttemptEvent(events.EventAttemptSubmitted, data.SubmittedAt, data))
}

func (s *attemptEventService) NotifyAttemptExpired(ctx context.Context, quiz *models.Quiz, attempt *models.QuizAttempt) {
	data := events.AttemptExpiredData{
		AttemptID:     attempt.ID,
		QuizID:        quiz.ID,
		StudentID:     attempt.StudentID,
		AttemptNumber: attempt.AttemptNumber,
	}
	if attempt.SubmittedAt != nil {
		data.ExpiredAt = *attempt.SubmittedAt
	}
	s.publish(ctx, events.NewAttemptEvent(events.EventAttemptExpired, data.ExpiredAt, data))
}

func (s *attemptEventService) NotifyAttemptGraded(ctx context.Context, quiz *models.Quiz, attempt *models.QuizAttempt) {
	data := events.AttemptGradedData{
		AttemptID:  attempt.ID,
		QuizID:     quiz.ID,
		StudentID:  attempt.StudentID,
		Score:      attempt.Score,
		MaxScore:   attempt.MaxScore,
		Percentage: attempt.Percentage,
		IsPassed:   attempt.IsPassed,
		Scores:     make([]events.GradedScore, 0, len(attempt.Answers)),
	}
	if attempt.GradedBy != nil {
		data.GradedBy = *attempt.GradedBy
	}
	if attempt.GradedAt != nil {
		data.GradedAt = *attempt.GradedAt
	}
	for _, answer := range attempt.Answers {
		data.Scores = append(data.Scores, events.GradedScore{
			QuestionIndex: answer.QuestionIndex,
			PointsEarned:  answer.PointsEarned,
			TeacherScore:  answer.TeacherScore,
		})
	}
	s.publish(ctx, events.NewAttemptEvent(events.EventAttemptGraded, data.GradedAt, data))
}

func (s *attemptEventService) NotifyManualGradingRequired(ctx context.Context, quiz *models.Quiz, attempt *models.QuizAttempt) {
	var pending []int
	for _, answer := range attempt.Answers {
		question := quiz.Question(answer.QuestionIndex)
		if question != nil && !question.Type.IsAutoGradable() {
			pending = append(pending, answer.QuestionIndex)
		}
	}

	data := events.ManualGradingRequiredData{
		AttemptID:        attempt.ID,
		QuizID:           quiz.ID,
		QuizTitle:        quiz.Title,
		StudentID:        attempt.StudentID,
		QuizOwner:        quiz.CreatedBy,
		PendingQuestions: pending,
	}
	at := attempt.StartedAt
	if attempt.SubmittedAt != nil {
		at = *attempt.SubmittedAt
	}
	s.publish(ctx, events.NewAttemptEvent(events.EventManualGradingRequired, at, data))
}

func (s *attemptEventService) publish(ctx context.Context, event *events.AttemptEvent) {
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Attempt event not published",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
	}
}
