package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/models"
)

type answer struct {
	QuestionIndex int `json:"question_index" validate:"min=0"`
}

type submission struct {
	Answers []answer `json:"answers" validate:"required,unique=QuestionIndex,dive"`
}

func TestValidator_UserRole(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(models.Actor{ID: "u-1", Role: models.RoleTeacher}))

	err := v.Validate(struct {
		Role string `json:"role" validate:"user_role"`
	}{Role: "proctor"})
	require.Error(t, err)

	verrs, ok := err.(ValidationErrors)
	require.True(t, ok)
	assert.Equal(t, "role", verrs[0].Field)
	assert.Equal(t, "must be a valid user role (student, teacher, admin)", verrs[0].Message)
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(submission{Answers: []answer{{QuestionIndex: -1}}})
	require.Error(t, err)
	verrs := err.(ValidationErrors)
	assert.Equal(t, "question_index", verrs[0].Field)
	assert.Equal(t, "must be at least 0", verrs[0].Message)
}

func TestValidator_DuplicateIndexes(t *testing.T) {
	v := New()

	err := v.Validate(submission{Answers: []answer{{QuestionIndex: 1}, {QuestionIndex: 1}}})
	require.Error(t, err)
	verrs := err.(ValidationErrors)
	assert.Equal(t, "answers", verrs[0].Field)
	assert.Equal(t, "unique", verrs[0].Rule)

	assert.NoError(t, v.Validate(submission{Answers: []answer{}}))
}
