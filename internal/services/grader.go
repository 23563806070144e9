package services

import "github.com/SAP-F-2025/quiz-attempt-service/internal/models"

type GradeResult struct {
	IsCorrect bool
	Points    float64
}

// Grade scores one answer to an auto-gradable question. An empty correct set
// or a null answer is never correct.
func Grade(question *models.QuizQuestion, answer models.AnswerValue) GradeResult {
	if question == nil || len(question.CorrectAnswers) == 0 || answer.IsNull() {
		return GradeResult{}
	}

	var correct bool
	switch question.Type {
	case models.Checkboxes:
		correct = answer.IsList() && sameSet(answer.Values(), question.CorrectAnswers)
	case models.MultipleChoice, models.TrueFalse:
		value, ok := answer.First()
		correct = ok && contains(question.CorrectAnswers, value)
	}

	if !correct {
		return GradeResult{}
	}
	return GradeResult{IsCorrect: true, Points: question.Points}
}

func sameSet(submitted, expected []string) bool {
	want := toSet(expected)
	got := toSet(submitted)
	if len(want) != len(got) {
		return false
	}
	for value := range got {
		if _, ok := want[value]; !ok {
			return false
		}
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
