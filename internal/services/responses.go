package services

import "github.com/SAP-F-2025/quiz-attempt-service/internal/models"

// Visibility rules for what a student may see of their own attempt. Staff
// always see everything.

// resultsVisible reports whether scores can be shown to the student.
func resultsVisible(quiz *models.Quiz, attempt *models.QuizAttempt) bool {
	return quiz.ShowResultsImmediately || attempt.IsGraded
}

// answersVisible reports whether a student may see their graded answers.
func answersVisible(quiz *models.Quiz, attempt *models.QuizAttempt) bool {
	return quiz.ShowResultsImmediately && attempt.IsSubmitted()
}

func quizSummary(quiz *models.Quiz) QuizSummary {
	return QuizSummary{
		ID:           quiz.ID,
		Title:        quiz.Title,
		TotalPoints:  quiz.TotalPoints(),
		Duration:     quiz.Duration,
		PassingScore: quiz.PassingScore,
	}
}

func buildSubmitResponse(quiz *models.Quiz, attempt *models.QuizAttempt) *SubmitAttemptResponse {
	resp := &SubmitAttemptResponse{
		ID:            attempt.ID,
		AttemptNumber: attempt.AttemptNumber,
		IsGraded:      attempt.IsGraded,
	}
	if attempt.SubmittedAt != nil {
		resp.SubmittedAt = *attempt.SubmittedAt
	}
	if attempt.TimeSpent != nil {
		resp.TimeSpent = *attempt.TimeSpent
	}

	if !resultsVisible(quiz, attempt) {
		resp.Message = ResultsPendingMessage
		return resp
	}
	resp.Score = floatPtr(attempt.Score)
	resp.MaxScore = floatPtr(attempt.MaxScore)
	resp.Percentage = floatPtr(attempt.Percentage)
	resp.IsPassed = attempt.IsPassed
	return resp
}

func buildDetailResponse(actor models.Actor, quiz *models.Quiz, attempt *models.QuizAttempt) *AttemptDetailResponse {
	resp := &AttemptDetailResponse{
		ID:            attempt.ID,
		Quiz:          quizSummary(quiz),
		StudentID:     attempt.StudentID,
		Score:         floatPtr(attempt.Score),
		MaxScore:      attempt.MaxScore,
		Percentage:    floatPtr(attempt.Percentage),
		IsPassed:      attempt.IsPassed,
		StartedAt:     attempt.StartedAt,
		SubmittedAt:   attempt.SubmittedAt,
		TimeSpent:     attempt.TimeSpent,
		AttemptNumber: attempt.AttemptNumber,
		IsGraded:      attempt.IsGraded,
		GradedBy:      attempt.GradedBy,
		GradedAt:      attempt.GradedAt,
		Feedback:      attempt.Feedback,
		CreatedAt:     attempt.CreatedAt,
		UpdatedAt:     attempt.UpdatedAt,
	}

	staff := actor.IsStaff()
	if staff || answersVisible(quiz, attempt) {
		resp.Answers = buildAnswerDetails(quiz, attempt, staff)
	}

	if !staff && !resultsVisible(quiz, attempt) {
		resp.Score = nil
		resp.Percentage = nil
		resp.IsPassed = nil
		resp.Answers = nil
		resp.Message = ResultsPendingMessage
	}
	return resp
}

func buildAnswerDetails(quiz *models.Quiz, attempt *models.QuizAttempt, withKey bool) []AnswerDetail {
	details := make([]AnswerDetail, 0, len(attempt.Answers))
	for _, answer := range attempt.Answers {
		detail := AnswerDetail{
			QuestionIndex:   answer.QuestionIndex,
			Answer:          answer.Answer,
			IsCorrect:       answer.IsCorrect,
			PointsEarned:    answer.PointsEarned,
			TeacherScore:    answer.TeacherScore,
			TeacherFeedback: answer.TeacherFeedback,
		}
		if question := quiz.Question(answer.QuestionIndex); question != nil {
			view := &QuestionView{
				Question: question.Question,
				Type:     question.Type,
				Options:  append([]string{}, question.Options...),
				Points:   question.Points,
			}
			if withKey {
				view.CorrectAnswers = append([]string{}, question.CorrectAnswers...)
			}
			detail.Question = view
		}
		details = append(details, detail)
	}
	return details
}

// buildSummary applies the list visibility rule: students see scores once the
// attempt is graded, or once it is submitted on a quiz that shows results.
func buildSummary(actor models.Actor, quiz *models.Quiz, attempt *models.QuizAttempt) AttemptSummary {
	summary := AttemptSummary{
		ID:            attempt.ID,
		Quiz:          quizSummary(quiz),
		StudentID:     attempt.StudentID,
		MaxScore:      attempt.MaxScore,
		StartedAt:     attempt.StartedAt,
		SubmittedAt:   attempt.SubmittedAt,
		TimeSpent:     attempt.TimeSpent,
		AttemptNumber: attempt.AttemptNumber,
		IsGraded:      attempt.IsGraded,
		CreatedAt:     attempt.CreatedAt,
	}

	if actor.IsStaff() || answersVisible(quiz, attempt) || attempt.IsGraded {
		summary.Score = floatPtr(attempt.Score)
		summary.Percentage = floatPtr(attempt.Percentage)
		summary.IsPassed = attempt.IsPassed
	}
	return summary
}
