package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/quiz-attempt-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")

	// Quiz availability errors
	ErrQuizNotFound   = errors.New("quiz not found")
	ErrQuizInactive   = errors.New("quiz is not active")
	ErrQuizNotYetOpen = errors.New("quiz not yet open")
	ErrQuizClosed     = errors.New("quiz closed")

	// Attempt specific errors
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptAccessDenied     = errors.New("access denied to attempt")
	ErrAttemptInProgress       = errors.New("finish your current attempt first")
	ErrAttemptLimitReached     = errors.New("attempt limit reached")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrAttemptTimeExceeded     = errors.New("time exceeded")
	ErrAttemptNotSubmitted     = errors.New("cannot grade an attempt that has not been submitted")
	ErrAttemptModified         = errors.New("attempt was modified concurrently, reload and retry")

	// Grading specific errors
	ErrGradingInvalidScore = errors.New("invalid score value")

	// User/Permission errors
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

func (pe *PermissionError) Unwrap() error {
	return ErrForbidden
}

// ScoreRangeError rejects a teacher score outside 0..points. QuestionNumber is
// 1-based, as shown to the teacher.
type ScoreRangeError struct {
	QuestionNumber int     `json:"question_number"`
	Score          float64 `json:"score"`
	MaxPoints      float64 `json:"max_points"`
}

func (e *ScoreRangeError) Error() string {
	return fmt.Sprintf("score for question %d must be between 0 and %g, got %g",
		e.QuestionNumber, e.MaxPoints, e.Score)
}

func (e *ScoreRangeError) Unwrap() error {
	return ErrGradingInvalidScore
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// internalError keeps the persistence cause in the chain next to
// ErrInternalError.
func internalError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternalError, err)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrAttemptNotFound)
}

// IsForbidden checks if error is a business-rule rejection the caller cannot
// fix by changing the request.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrQuizInactive) ||
		errors.Is(err, ErrQuizNotYetOpen) ||
		errors.Is(err, ErrQuizClosed) ||
		errors.Is(err, ErrAttemptAccessDenied) ||
		errors.Is(err, ErrAttemptLimitReached) ||
		errors.Is(err, ErrAttemptTimeExceeded) ||
		errors.Is(err, ErrInsufficientPermissions)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrAttemptInProgress) ||
		errors.Is(err, ErrAttemptAlreadySubmitted) ||
		errors.Is(err, ErrAttemptNotSubmitted) ||
		errors.Is(err, ErrAttemptModified) ||
		errors.Is(err, ErrGradingInvalidScore) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternalError)
}

// ErrorCode gives each rejection a stable code so clients can tell "not yet
// open" from "closed" from "limit reached" without parsing messages.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrQuizNotFound):
		return "QUIZ_NOT_FOUND"
	case errors.Is(err, ErrAttemptNotFound):
		return "ATTEMPT_NOT_FOUND"
	case errors.Is(err, ErrQuizInactive):
		return "QUIZ_INACTIVE"
	case errors.Is(err, ErrQuizNotYetOpen):
		return "QUIZ_NOT_YET_OPEN"
	case errors.Is(err, ErrQuizClosed):
		return "QUIZ_CLOSED"
	case errors.Is(err, ErrAttemptLimitReached):
		return "ATTEMPT_LIMIT_REACHED"
	case errors.Is(err, ErrAttemptTimeExceeded):
		return "TIME_EXCEEDED"
	case errors.Is(err, ErrAttemptInProgress):
		return "ATTEMPT_IN_PROGRESS"
	case errors.Is(err, ErrAttemptAlreadySubmitted):
		return "ATTEMPT_ALREADY_SUBMITTED"
	case errors.Is(err, ErrAttemptNotSubmitted):
		return "ATTEMPT_NOT_SUBMITTED"
	case errors.Is(err, ErrAttemptModified):
		return "ATTEMPT_MODIFIED"
	case errors.Is(err, ErrGradingInvalidScore):
		return "INVALID_SCORE"
	case IsNotFound(err):
		return "NOT_FOUND"
	case IsForbidden(err):
		return "FORBIDDEN"
	case IsValidation(err):
		return "VALIDATION_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}
