package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/models"
)

func TestGrade(t *testing.T) {
	multipleChoice := &models.QuizQuestion{Type: models.MultipleChoice, Points: 10, CorrectAnswers: []string{"B"}}
	trueFalse := &models.QuizQuestion{Type: models.TrueFalse, Points: 2, CorrectAnswers: []string{"true"}}
	checkboxes := &models.QuizQuestion{Type: models.Checkboxes, Points: 5, CorrectAnswers: []string{"A", "C", "D"}}
	noKey := &models.QuizQuestion{Type: models.MultipleChoice, Points: 4}

	tests := []struct {
		name     string
		question *models.QuizQuestion
		answer   models.AnswerValue
		want     GradeResult
	}{
		{"multiple choice correct", multipleChoice, models.SingleAnswer("B"), GradeResult{true, 10}},
		{"multiple choice wrong", multipleChoice, models.SingleAnswer("A"), GradeResult{}},
		{"multiple choice list uses first element", multipleChoice, models.ListAnswer("B", "A"), GradeResult{true, 10}},
		{"multiple choice list with wrong first element", multipleChoice, models.ListAnswer("A", "B"), GradeResult{}},
		{"multiple choice empty list", multipleChoice, models.ListAnswer(), GradeResult{}},
		{"null answer", multipleChoice, models.AnswerValue{}, GradeResult{}},
		{"true false correct", trueFalse, models.SingleAnswer("true"), GradeResult{true, 2}},
		{"true false wrong", trueFalse, models.SingleAnswer("false"), GradeResult{}},
		{"checkboxes exact", checkboxes, models.ListAnswer("A", "C", "D"), GradeResult{true, 5}},
		{"checkboxes reversed", checkboxes, models.ListAnswer("D", "C", "A"), GradeResult{true, 5}},
		{"checkboxes subset", checkboxes, models.ListAnswer("A", "C"), GradeResult{}},
		{"checkboxes superset", checkboxes, models.ListAnswer("A", "B", "C", "D"), GradeResult{}},
		{"checkboxes scalar", checkboxes, models.SingleAnswer("A"), GradeResult{}},
		{"checkboxes duplicates collapse", checkboxes, models.ListAnswer("A", "A", "C", "D"), GradeResult{true, 5}},
		{"empty correct set", noKey, models.SingleAnswer("A"), GradeResult{}},
		{"nil question", nil, models.SingleAnswer("A"), GradeResult{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Grade(tt.question, tt.answer))
		})
	}
}

func TestGrade_ManualTypesNeverCorrect(t *testing.T) {
	essay := &models.QuizQuestion{Type: models.Essay, Points: 10, CorrectAnswers: []string{"anything"}}
	assert.Equal(t, GradeResult{}, Grade(essay, models.SingleAnswer("anything")))
}
