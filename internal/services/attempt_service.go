package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/models"
	"github.com/SAP-F-2025/quiz-attempt-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-attempt-service/internal/validator"
)

type attemptService struct {
	repo      repositories.Repository
	events    AttemptEventService
	clock     Clock
	logger    *slog.Logger
	opLog     *ServiceLogger
	validator *validator.Validator
}

func NewAttemptService(
	repo repositories.Repository,
	events AttemptEventService,
	clock Clock,
	logger *slog.Logger,
	validator *validator.Validator,
) AttemptService {
	return &attemptService{
		repo:      repo,
		events:    events,
		clock:     clock,
		logger:    logger,
		opLog:     NewServiceLogger(logger, LogConfig{Service: "quiz-attempt", Component: "attempt"}),
		validator: validator,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, actor models.Actor, req *StartAttemptRequest) (resp *StartAttemptResponse, err error) {
	op := s.opLog.WithOperation(ctx, "start_attempt", actor.ID)
	var attemptID uint
	defer func() { op.LogResult(attemptID, "attempt", err) }()

	if err := s.validateActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if !actor.IsStudent() {
		return nil, NewPermissionError(actor.ID, req.QuizID, "quiz", "start", "only students can take quizzes")
	}

	quiz, err := s.loadQuiz(ctx, req.QuizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive {
		return nil, ErrQuizInactive
	}

	now := s.clock.Now()
	if quiz.NotYetOpen(now) {
		return nil, ErrQuizNotYetOpen
	}
	if quiz.Closed(now) {
		return nil, ErrQuizClosed
	}

	open, err := s.repo.Attempt().FindUnsubmitted(ctx, actor.ID, quiz.ID)
	if err != nil {
		return nil, internalError("find open attempt", err)
	}
	if open != nil {
		if !quiz.Overdue(open.StartedAt, now) {
			return nil, ErrAttemptInProgress
		}
		if err := s.expireAttempt(ctx, quiz, open, now); err != nil {
			return nil, err
		}
	}

	if quiz.MaxAttempts > 0 {
		submitted, err := s.repo.Attempt().CountSubmitted(ctx, actor.ID, quiz.ID)
		if err != nil {
			return nil, internalError("count submitted attempts", err)
		}
		if submitted >= quiz.MaxAttempts {
			return nil, ErrAttemptLimitReached
		}
	}

	// Every prior creation counts here, not only submitted attempts
	previous, err := s.repo.Attempt().CountAll(ctx, actor.ID, quiz.ID)
	if err != nil {
		return nil, internalError("count attempts", err)
	}

	attempt := &models.QuizAttempt{
		QuizID:        quiz.ID,
		StudentID:     actor.ID,
		AttemptNumber: previous + 1,
		Answers:       []models.AttemptAnswer{},
		StartedAt:     now,
	}
	attempt.SetMaxScore(quiz.TotalPoints())

	if err := s.repo.Attempt().Create(ctx, attempt); err != nil {
		if errors.Is(err, repositories.ErrDuplicateAttempt) {
			// A concurrent start for the same pair won the insert
			return nil, ErrAttemptInProgress
		}
		return nil, internalError("create attempt", err)
	}
	attemptID = attempt.ID

	s.logger.Info("Quiz attempt started",
		"attempt_id", attempt.ID,
		"quiz_id", quiz.ID,
		"student_id", actor.ID,
		"attempt_number", attempt.AttemptNumber)
	s.events.NotifyAttemptStarted(ctx, quiz, attempt)

	return &StartAttemptResponse{
		ID:            attempt.ID,
		Quiz:          quizSummary(quiz),
		StartedAt:     attempt.StartedAt,
		AttemptNumber: attempt.AttemptNumber,
	}, nil
}

func (s *attemptService) Submit(ctx context.Context, actor models.Actor, attemptID uint, req *SubmitAttemptRequest) (resp *SubmitAttemptResponse, err error) {
	op := s.opLog.WithOperation(ctx, "submit_attempt", actor.ID)
	defer func() { op.LogResult(attemptID, "attempt", err) }()

	if err := s.validateActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if !actor.IsStudent() {
		return nil, NewPermissionError(actor.ID, attemptID, "attempt", "submit", "only students can submit attempts")
	}

	attempt, err := s.loadAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != actor.ID {
		return nil, NewPermissionError(actor.ID, attemptID, "attempt", "submit", "not owned by student")
	}
	if attempt.IsSubmitted() {
		return nil, ErrAttemptAlreadySubmitted
	}

	quiz, err := s.loadQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if quiz.Closed(now) {
		return nil, ErrQuizClosed
	}
	if quiz.Overdue(attempt.StartedAt, now) {
		return nil, ErrAttemptTimeExceeded
	}

	answers, score, needsManual := gradeSubmission(quiz, req.Answers)
	attempt.Answers = answers
	attempt.SetScore(score)
	attempt.Finalize(now)
	attempt.IsGraded = !needsManual
	attempt.UpdatePassed(quiz.PassingScore)

	if err := s.repo.Attempt().SaveIfUnsubmitted(ctx, attempt); err != nil {
		if errors.Is(err, repositories.ErrStaleAttempt) {
			return nil, ErrAttemptAlreadySubmitted
		}
		return nil, internalError("save submission", err)
	}

	s.logger.Info("Quiz attempt submitted",
		"attempt_id", attempt.ID,
		"quiz_id", quiz.ID,
		"student_id", actor.ID,
		"score", attempt.Score,
		"needs_manual_grading", needsManual)

	s.events.NotifyAttemptSubmitted(ctx, quiz, attempt)
	if needsManual {
		s.events.NotifyManualGradingRequired(ctx, quiz, attempt)
	}

	return buildSubmitResponse(quiz, attempt), nil
}

// ===== QUERIES =====

func (s *attemptService) Get(ctx context.Context, actor models.Actor, attemptID uint) (resp *AttemptDetailResponse, err error) {
	op := s.opLog.WithOperation(ctx, "get_attempt", actor.ID)
	defer func() { op.LogResult(attemptID, "attempt", err) }()

	if err := s.validateActor(actor); err != nil {
		return nil, err
	}

	attempt, err := s.loadAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if actor.IsStudent() && attempt.StudentID != actor.ID {
		return nil, NewPermissionError(actor.ID, attemptID, "attempt", "view", "not owned by student")
	}

	quiz, err := s.loadQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	return buildDetailResponse(actor, quiz, attempt), nil
}

func (s *attemptService) ListMine(ctx context.Context, actor models.Actor, filters *MyAttemptFilters) (resp *AttemptListResponse, err error) {
	op := s.opLog.WithOperation(ctx, "list_my_attempts", actor.ID)
	defer func() { op.LogResult(0, "attempt", err) }()

	if err := s.validateActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsStudent() {
		return nil, NewPermissionError(actor.ID, 0, "attempt", "list_own", "only students have attempts")
	}
	if filters == nil {
		filters = &MyAttemptFilters{}
	}

	studentID := actor.ID
	page, limit, offset := filters.Normalize()
	return s.list(ctx, actor, repositories.AttemptFilters{
		QuizID:        filters.QuizID,
		StudentID:     &studentID,
		SubmittedOnly: filters.Submitted,
		Limit:         limit,
		Offset:        offset,
	}, page, limit)
}

func (s *attemptService) List(ctx context.Context, actor models.Actor, filters *AttemptListFilters) (resp *AttemptListResponse, err error) {
	op := s.opLog.WithOperation(ctx, "list_attempts", actor.ID)
	defer func() { op.LogResult(0, "attempt", err) }()

	if err := s.validateActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsStaff() {
		return nil, NewPermissionError(actor.ID, 0, "attempt", "list", "teacher or admin role required")
	}
	if filters == nil {
		filters = &AttemptListFilters{}
	}

	page, limit, offset := filters.Normalize()
	return s.list(ctx, actor, repositories.AttemptFilters{
		QuizID:        filters.QuizID,
		StudentID:     filters.StudentID,
		IsGraded:      filters.IsGraded,
		SubmittedOnly: filters.Submitted,
		Limit:         limit,
		Offset:        offset,
	}, page, limit)
}
