package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/models"
	"github.com/SAP-F-2025/quiz-attempt-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-attempt-service/internal/validator"
)

const (
	resultsSheetName = "Results"
	exportBatchSize  = 500
)

type gradingService struct {
	repo      repositories.Repository
	events    AttemptEventService
	clock     Clock
	logger    *slog.Logger
	opLog     *ServiceLogger
	validator *validator.Validator
}

func NewGradingService(
	repo repositories.Repository,
	events AttemptEventService,
	clock Clock,
	logger *slog.Logger,
	validator *validator.Validator,
) GradingService {
	return &gradingService{
		repo:      repo,
		events:    events,
		clock:     clock,
		logger:    logger,
		opLog:     NewServiceLogger(logger, LogConfig{Service: "quiz-attempt", Component: "grading"}),
		validator: validator,
	}
}

func (s *gradingService) GradeAttempt(ctx context.Context, actor models.Actor, attemptID uint, req *GradeAttemptRequest) (resp *AttemptDetailResponse, err error) {
	op := s.opLog.WithOperation(ctx, "grade_attempt", actor.ID)
	defer func() { op.LogResult(attemptID, "attempt", err) }()

	if err := validateActor(s.validator, actor); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if !actor.IsStaff() {
		return nil, NewPermissionError(actor.ID, attemptID, "attempt", "grade", "teacher or admin role required")
	}

	attempt, err := loadAttempt(ctx, s.repo, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.IsSubmitted() {
		return nil, ErrAttemptNotSubmitted
	}

	quiz, err := loadQuiz(ctx, s.repo, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	// Reject the whole pass before touching any answer
	if err := checkTeacherScores(quiz, attempt, req.Answers); err != nil {
		return nil, err
	}
	applyTeacherScores(attempt, req.Answers)
	if req.Feedback != nil {
		feedback := *req.Feedback
		attempt.Feedback = &feedback
	}
	attempt.MarkGraded(actor.ID, s.clock.Now(), quiz.PassingScore)

	if err := s.repo.Attempt().Save(ctx, attempt); err != nil {
		if errors.Is(err, repositories.ErrStaleAttempt) {
			return nil, ErrAttemptModified
		}
		return nil, internalError("save grading", err)
	}

	s.logger.Info("Quiz attempt graded",
		"attempt_id", attempt.ID,
		"quiz_id", quiz.ID,
		"graded_by", actor.ID,
		"score", attempt.Score,
		"max_score", attempt.MaxScore)
	s.events.NotifyAttemptGraded(ctx, quiz, attempt)

	return buildDetailResponse(actor, quiz, attempt), nil
}

// checkTeacherScores validates every teacher score against the question it
// targets. Entries for answers the student never gave, and entries without a
// score, are ignored.
func checkTeacherScores(quiz *models.Quiz, attempt *models.QuizAttempt, scores []TeacherScoreRequest) error {
	for _, in := range scores {
		if in.TeacherScore == nil || attempt.AnswerFor(in.QuestionIndex) == nil {
			continue
		}
		question := quiz.Question(in.QuestionIndex)
		if question == nil {
			return fmt.Errorf("%w: %w", ErrValidationFailed,
				NewValidationError("question_index", "question does not exist", in.QuestionIndex))
		}
		score := *in.TeacherScore
		if score < 0 || score > question.Points {
			return &ScoreRangeError{
				QuestionNumber: in.QuestionIndex + 1,
				Score:          score,
				MaxPoints:      question.Points,
			}
		}
	}
	return nil
}

func applyTeacherScores(attempt *models.QuizAttempt, scores []TeacherScoreRequest) {
	for _, in := range scores {
		answer := attempt.AnswerFor(in.QuestionIndex)
		if answer == nil {
			continue
		}
		if in.TeacherScore != nil {
			score := *in.TeacherScore
			answer.TeacherScore = &score
		}
		if in.TeacherFeedback != nil {
			feedback := *in.TeacherFeedback
			answer.TeacherFeedback = &feedback
		}
	}
}

// ===== EXPORT =====

func (s *gradingService) ExportResults(ctx context.Context, actor models.Actor, quizID uint) (data []byte, err error) {
	op := s.opLog.WithOperation(ctx, "export_results", actor.ID)
	defer func() { op.LogResult(quizID, "quiz", err) }()

	if err := validateActor(s.validator, actor); err != nil {
		return nil, err
	}
	if !actor.IsStaff() {
		return nil, NewPermissionError(actor.ID, quizID, "quiz", "export", "teacher or admin role required")
	}

	quiz, err := loadQuiz(ctx, s.repo, quizID)
	if err != nil {
		return nil, err
	}

	attempts, err := s.submittedAttempts(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(resultsSheetName)
	if err != nil {
		return nil, internalError("create results sheet", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, internalError("drop default sheet", err)
	}

	if err := f.SetSheetRow(resultsSheetName, "A1", resultsHeader(quiz)); err != nil {
		return nil, internalError("write results header", err)
	}
	for i, attempt := range attempts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, internalError("results cell", err)
		}
		if err := f.SetSheetRow(resultsSheetName, cell, resultsRow(quiz, attempt)); err != nil {
			return nil, internalError("write results row", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, internalError("write results workbook", err)
	}

	s.logger.Info("Quiz results exported",
		"quiz_id", quiz.ID,
		"attempts", len(attempts),
		"exported_by", actor.ID)
	return buf.Bytes(), nil
}

func (s *gradingService) submittedAttempts(ctx context.Context, quizID uint) ([]*models.QuizAttempt, error) {
	var all []*models.QuizAttempt
	for offset := 0; ; offset += exportBatchSize {
		batch, total, err := s.repo.Attempt().List(ctx, repositories.AttemptFilters{
			QuizID:        &quizID,
			SubmittedOnly: true,
			Limit:         exportBatchSize,
			Offset:        offset,
		})
		if err != nil {
			return nil, internalError("list attempts for export", err)
		}
		all = append(all, batch...)
		if len(batch) < exportBatchSize || int64(len(all)) >= total {
			return all, nil
		}
	}
}

func resultsHeader(quiz *models.Quiz) *[]interface{} {
	header := []interface{}{"Attempt", "Student", "Started At", "Submitted At", "Time Spent (s)"}
	for i := range quiz.Questions {
		header = append(header, fmt.Sprintf("Q%d", i+1))
	}
	header = append(header, "Score", "Max Score", "Percentage", "Passed", "Graded")
	return &header
}

func resultsRow(quiz *models.Quiz, attempt *models.QuizAttempt) *[]interface{} {
	row := []interface{}{
		attempt.AttemptNumber,
		attempt.StudentID,
		attempt.StartedAt.Format(time.RFC3339),
		formatOptionalTime(attempt.SubmittedAt),
		"",
	}
	if attempt.TimeSpent != nil {
		row[4] = *attempt.TimeSpent
	}

	for i := range quiz.Questions {
		if answer := attempt.AnswerFor(i); answer != nil {
			row = append(row, answer.EffectiveScore())
		} else {
			row = append(row, "")
		}
	}

	passed := ""
	if attempt.IsPassed != nil {
		passed = "no"
		if *attempt.IsPassed {
			passed = "yes"
		}
	}
	graded := "no"
	if attempt.IsGraded {
		graded = "yes"
	}

	row = append(row, attempt.Score, attempt.MaxScore, attempt.Percentage, passed, graded)
	return &row
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
