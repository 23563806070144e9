package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/models"
	"github.com/SAP-F-2025/quiz-attempt-service/internal/repositories"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func newAttempt(quizID uint, studentID string, number int, startedAt time.Time) *models.QuizAttempt {
	attempt := &models.QuizAttempt{
		QuizID:        quizID,
		StudentID:     studentID,
		AttemptNumber: number,
		StartedAt:     startedAt,
		Answers:       []models.AttemptAnswer{},
	}
	attempt.SetMaxScore(20)
	return attempt
}

func TestAttemptPostgreSQL_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewAttemptPostgreSQL(newTestDB(t))
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	attempt := newAttempt(1, "student-1", 1, start)
	require.NoError(t, repo.Create(ctx, attempt))
	assert.NotZero(t, attempt.ID)
	assert.Equal(t, 1, attempt.Version)

	found, err := repo.GetByID(ctx, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, "student-1", found.StudentID)
	assert.Equal(t, 1, found.AttemptNumber)
	assert.Nil(t, found.SubmittedAt)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestAttemptPostgreSQL_SingleOpenAttempt(t *testing.T) {
	ctx := context.Background()
	repo := NewAttemptPostgreSQL(newTestDB(t))
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newAttempt(1, "student-1", 1, start)))

	err := repo.Create(ctx, newAttempt(1, "student-1", 2, start))
	assert.ErrorIs(t, err, repositories.ErrDuplicateAttempt)

	// Another student or another quiz is unaffected.
	require.NoError(t, repo.Create(ctx, newAttempt(1, "student-2", 1, start)))
	require.NoError(t, repo.Create(ctx, newAttempt(2, "student-1", 1, start)))
}

func TestAttemptPostgreSQL_DuplicateAttemptNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewAttemptPostgreSQL(newTestDB(t))
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	first := newAttempt(1, "student-1", 1, start)
	require.NoError(t, repo.Create(ctx, first))
	first.Finalize(start.Add(time.Minute))
	require.NoError(t, repo.SaveIfUnsubmitted(ctx, first))

	err := repo.Create(ctx, newAttempt(1, "student-1", 1, start.Add(2*time.Minute)))
	assert.ErrorIs(t, err, repositories.ErrDuplicateAttempt)
}

func TestAttemptPostgreSQL_SaveIfUnsubmitted(t *testing.T) {
	ctx := context.Background()
	repo := NewAttemptPostgreSQL(newTestDB(t))
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	attempt := newAttempt(1, "student-1", 1, start)
	require.NoError(t, repo.Create(ctx, attempt))

	// Two readers of the same open attempt.
	first, err := repo.GetByID(ctx, attempt.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, attempt.ID)
	require.NoError(t, err)

	first.Answers = []models.AttemptAnswer{{QuestionIndex: 0, Answer: models.SingleAnswer("B"), PointsEarned: 10}}
	first.SetScore(10)
	first.Finalize(start.Add(5 * time.Minute))
	first.IsGraded = true
	require.NoError(t, repo.SaveIfUnsubmitted(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.Finalize(start.Add(6 * time.Minute))
	assert.ErrorIs(t, repo.SaveIfUnsubmitted(ctx, second), repositories.ErrStaleAttempt)

	stored, err := repo.GetByID(ctx, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, stored.Score)
	assert.Equal(t, 50.0, stored.Percentage)
	assert.True(t, stored.IsGraded)
	require.Len(t, stored.Answers, 1)
	value, ok := stored.Answers[0].Answer.First()
	require.True(t, ok)
	assert.Equal(t, "B", value)
	require.NotNil(t, stored.TimeSpent)
	assert.Equal(t, 300, *stored.TimeSpent)

	// Even with a fresh version, a submitted attempt cannot be submitted again.
	assert.ErrorIs(t, repo.SaveIfUnsubmitted(ctx, stored), repositories.ErrStaleAttempt)
}

func TestAttemptPostgreSQL_SaveChecksVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewAttemptPostgreSQL(newTestDB(t))
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	attempt := newAttempt(1, "student-1", 1, start)
	require.NoError(t, repo.Create(ctx, attempt))
	attempt.Finalize(start.Add(time.Minute))
	require.NoError(t, repo.SaveIfUnsubmitted(ctx, attempt))

	stale, err := repo.GetByID(ctx, attempt.ID)
	require.NoError(t, err)

	feedback := "good work"
	attempt.Feedback = &feedback
	attempt.MarkGraded("teacher-1", start.Add(time.Hour), nil)
	require.NoError(t, repo.Save(ctx, attempt))

	assert.ErrorIs(t, repo.Save(ctx, stale), repositories.ErrStaleAttempt)

	stored, err := repo.GetByID(ctx, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", *stored.GradedBy)
	assert.Equal(t, "good work", *stored.Feedback)
	assert.Equal(t, 1, stored.AttemptNumber)
}

func TestAttemptPostgreSQL_Counts(t *testing.T) {
	ctx := context.Background()
	repo := NewAttemptPostgreSQL(newTestDB(t))
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 1; i <= 2; i++ {
		attempt := newAttempt(1, "student-1", i, start.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Create(ctx, attempt))
		attempt.Finalize(attempt.StartedAt.Add(time.Minute))
		require.NoError(t, repo.SaveIfUnsubmitted(ctx, attempt))
	}
	open := newAttempt(1, "student-1", 3, start.Add(5*time.Hour))
	require.NoError(t, repo.Create(ctx, open))

	submitted, err := repo.CountSubmitted(ctx, "student-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, submitted)

	all, err := repo.CountAll(ctx, "student-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, all)

	found, err := repo.FindUnsubmitted(ctx, "student-1", 1)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, open.ID, found.ID)

	none, err := repo.FindUnsubmitted(ctx, "student-2", 1)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestAttemptPostgreSQL_List(t *testing.T) {
	ctx := context.Background()
	repo := NewAttemptPostgreSQL(newTestDB(t))
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	graded := newAttempt(1, "student-1", 1, start)
	require.NoError(t, repo.Create(ctx, graded))
	graded.Finalize(start.Add(time.Minute))
	graded.IsGraded = true
	require.NoError(t, repo.SaveIfUnsubmitted(ctx, graded))

	require.NoError(t, repo.Create(ctx, newAttempt(1, "student-2", 1, start)))
	require.NoError(t, repo.Create(ctx, newAttempt(2, "student-1", 1, start)))

	quizID := uint(1)
	attempts, total, err := repo.List(ctx, repositories.AttemptFilters{QuizID: &quizID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, attempts, 2)

	isGraded := true
	attempts, total, err = repo.List(ctx, repositories.AttemptFilters{IsGraded: &isGraded})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, graded.ID, attempts[0].ID)

	studentID := "student-1"
	attempts, total, err = repo.List(ctx, repositories.AttemptFilters{StudentID: &studentID, SubmittedOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, attempts, 1)

	attempts, total, err = repo.List(ctx, repositories.AttemptFilters{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, attempts, 1)
}

func TestQuizPostgreSQL_GetByID(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewQuizPostgreSQL(db)

	passing := 10.0
	quiz := &models.Quiz{
		Title:        "Intro",
		IsActive:     true,
		PassingScore: &passing,
		Questions: []models.QuizQuestion{
			{Question: "second", Type: models.Essay, Points: 10, Order: 2},
			{Question: "first", Type: models.MultipleChoice, Points: 10, Order: 1,
				Options: []string{"A", "B"}, CorrectAnswers: []string{"B"}},
		},
	}
	require.NoError(t, db.Create(quiz).Error)

	found, err := repo.GetByID(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, found.Questions, 2)
	assert.Equal(t, "first", found.Questions[0].Question)
	assert.Equal(t, []string{"B"}, []string(found.Questions[0].CorrectAnswers))
	assert.Equal(t, 20.0, found.TotalPoints())

	_, err = repo.GetByID(ctx, 404)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
