package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/events"
	"github.com/SAP-F-2025/quiz-attempt-service/internal/models"
	"github.com/SAP-F-2025/quiz-attempt-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-attempt-service/internal/validator"
)

// MockQuizRepository is a mock implementation of QuizRepository
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

// memoryAttemptRepository keeps attempts in memory with the same conditional
// write rules as the postgres store. Callers always get copies.
type memoryAttemptRepository struct {
	mu       sync.Mutex
	nextID   uint
	attempts map[uint]*models.QuizAttempt
	// failCreate, when set, is returned by the next Create
	failCreate error
}

func newMemoryAttemptRepository() *memoryAttemptRepository {
	return &memoryAttemptRepository{attempts: make(map[uint]*models.QuizAttempt)}
}

func cloneAttempt(a *models.QuizAttempt) *models.QuizAttempt {
	c := *a
	c.Answers = append([]models.AttemptAnswer{}, a.Answers...)
	return &c
}

func (r *memoryAttemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failCreate != nil {
		err := r.failCreate
		r.failCreate = nil
		return err
	}
	for _, existing := range r.attempts {
		if existing.QuizID != attempt.QuizID || existing.StudentID != attempt.StudentID {
			continue
		}
		if existing.SubmittedAt == nil || existing.AttemptNumber == attempt.AttemptNumber {
			return repositories.ErrDuplicateAttempt
		}
	}

	r.nextID++
	attempt.ID = r.nextID
	attempt.Version = 1
	attempt.CreatedAt = attempt.StartedAt
	attempt.UpdatedAt = attempt.StartedAt
	r.attempts[attempt.ID] = cloneAttempt(attempt)
	return nil
}

func (r *memoryAttemptRepository) GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	attempt, ok := r.attempts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneAttempt(attempt), nil
}

func (r *memoryAttemptRepository) FindUnsubmitted(ctx context.Context, studentID string, quizID uint) (*models.QuizAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, attempt := range r.attempts {
		if attempt.StudentID == studentID && attempt.QuizID == quizID && attempt.SubmittedAt == nil {
			return cloneAttempt(attempt), nil
		}
	}
	return nil, nil
}

func (r *memoryAttemptRepository) CountSubmitted(ctx context.Context, studentID string, quizID uint) (int, error) {
	return r.count(studentID, quizID, true), nil
}

func (r *memoryAttemptRepository) CountAll(ctx context.Context, studentID string, quizID uint) (int, error) {
	return r.count(studentID, quizID, false), nil
}

func (r *memoryAttemptRepository) count(studentID string, quizID uint, submittedOnly bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, attempt := range r.attempts {
		if attempt.StudentID != studentID || attempt.QuizID != quizID {
			continue
		}
		if submittedOnly && attempt.SubmittedAt == nil {
			continue
		}
		n++
	}
	return n
}

func (r *memoryAttemptRepository) SaveIfUnsubmitted(ctx context.Context, attempt *models.QuizAttempt) error {
	return r.save(attempt, true)
}

func (r *memoryAttemptRepository) Save(ctx context.Context, attempt *models.QuizAttempt) error {
	return r.save(attempt, false)
}

func (r *memoryAttemptRepository) save(attempt *models.QuizAttempt, requireOpen bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.attempts[attempt.ID]
	if !ok || stored.Version != attempt.Version {
		return repositories.ErrStaleAttempt
	}
	if requireOpen && stored.SubmittedAt != nil {
		return repositories.ErrStaleAttempt
	}

	attempt.Version++
	attempt.AttemptNumber = stored.AttemptNumber
	r.attempts[attempt.ID] = cloneAttempt(attempt)
	return nil
}

func (r *memoryAttemptRepository) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.QuizAttempt
	for _, attempt := range r.attempts {
		if filters.QuizID != nil && attempt.QuizID != *filters.QuizID {
			continue
		}
		if filters.StudentID != nil && attempt.StudentID != *filters.StudentID {
			continue
		}
		if filters.IsGraded != nil && attempt.IsGraded != *filters.IsGraded {
			continue
		}
		if filters.SubmittedOnly && attempt.SubmittedAt == nil {
			continue
		}
		matched = append(matched, cloneAttempt(attempt))
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	if filters.Offset >= len(matched) {
		return []*models.QuizAttempt{}, total, nil
	}
	matched = matched[filters.Offset:]
	if filters.Limit > 0 && filters.Limit < len(matched) {
		matched = matched[:filters.Limit]
	}
	return matched, total, nil
}

// fakeClock is a settable clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ===== FIXTURE =====

var testStart = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

var (
	student      = models.Actor{ID: "student-1", Role: models.RoleStudent}
	otherStudent = models.Actor{ID: "student-2", Role: models.RoleStudent}
	teacher      = models.Actor{ID: "teacher-1", Role: models.RoleTeacher}
)

type attemptFixture struct {
	quizzes   *MockQuizRepository
	attempts  *memoryAttemptRepository
	clock     *fakeClock
	publisher *events.MockEventPublisher
	service   AttemptService
	grading   GradingService
}

func newAttemptFixture(t *testing.T, quizzes ...*models.Quiz) *attemptFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &attemptFixture{
		quizzes:   &MockQuizRepository{},
		attempts:  newMemoryAttemptRepository(),
		clock:     &fakeClock{now: testStart},
		publisher: events.NewMockEventPublisher(logger),
	}
	for _, quiz := range quizzes {
		f.quizzes.On("GetByID", mock.Anything, quiz.ID).Return(quiz, nil)
	}
	f.quizzes.On("GetByID", mock.Anything, mock.Anything).Return(nil, repositories.ErrNotFound)

	repo := repositories.NewRepository(f.quizzes, f.attempts)
	eventService := NewAttemptEventService(f.publisher, logger)
	v := validator.New()
	f.service = NewAttemptService(repo, eventService, f.clock, logger, v)
	f.grading = NewGradingService(repo, eventService, f.clock, logger, v)
	return f
}

func (f *attemptFixture) start(t *testing.T, actor models.Actor, quizID uint) *StartAttemptResponse {
	t.Helper()
	resp, err := f.service.Start(context.Background(), actor, &StartAttemptRequest{QuizID: quizID})
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	return resp
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

// mixedQuiz has one auto-graded and one manually graded question.
func mixedQuiz() *models.Quiz {
	return &models.Quiz{
		ID:           1,
		Title:        "Biology midterm",
		IsActive:     true,
		PassingScore: floatPtr(15),
		Duration:     intPtr(30),
		MaxAttempts:  3,
		Questions: []models.QuizQuestion{
			{ID: 11, QuizID: 1, Question: "Largest organelle?", Type: models.MultipleChoice,
				Options: []string{"Nucleus", "Ribosome"}, CorrectAnswers: []string{"Nucleus"}, Points: 10, Order: 1},
			{ID: 12, QuizID: 1, Question: "Explain osmosis", Type: models.Essay, Points: 10, Order: 2},
		},
	}
}

// autoQuiz can be graded entirely on submit.
func autoQuiz() *models.Quiz {
	return &models.Quiz{
		ID:                     2,
		Title:                  "Capitals",
		IsActive:               true,
		ShowResultsImmediately: true,
		Questions: []models.QuizQuestion{
			{ID: 21, QuizID: 2, Question: "Capital of France?", Type: models.MultipleChoice,
				Options: []string{"Paris", "Lyon"}, CorrectAnswers: []string{"Paris"}, Points: 5, Order: 1},
			{ID: 22, QuizID: 2, Question: "Berlin is in Germany", Type: models.TrueFalse,
				Options: []string{"true", "false"}, CorrectAnswers: []string{"true"}, Points: 2, Order: 2},
			{ID: 23, QuizID: 2, Question: "Nordic capitals", Type: models.Checkboxes,
				Options: []string{"Oslo", "Rome", "Helsinki"}, CorrectAnswers: []string{"Oslo", "Helsinki"}, Points: 3, Order: 3},
		},
	}
}
