package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/cache"
	"github.com/SAP-F-2025/quiz-attempt-service/internal/models"
)

// CachedQuizRepository is a read-through cache in front of the quiz store.
// Cache failures degrade to a direct read.
type CachedQuizRepository struct {
	next   QuizRepository
	cache  cache.CacheService
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedQuizRepository(next QuizRepository, c cache.CacheService, ttl time.Duration, logger *slog.Logger) *CachedQuizRepository {
	return &CachedQuizRepository{
		next:   next,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

func QuizCacheKey(id uint) string {
	return fmt.Sprintf("quiz:%d", id)
}

func (r *CachedQuizRepository) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	key := QuizCacheKey(id)

	var cached models.Quiz
	err := r.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("Quiz cache read failed", "quiz_id", id, "error", err)
	}

	quiz, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, quiz, r.ttl); err != nil {
		r.logger.Warn("Quiz cache write failed", "quiz_id", id, "error", err)
	}
	return quiz, nil
}

// Invalidate drops a cached quiz definition.
func (r *CachedQuizRepository) Invalidate(ctx context.Context, id uint) error {
	return r.cache.Delete(ctx, QuizCacheKey(id))
}

func (r *CachedQuizRepository) InvalidateAll(ctx context.Context) error {
	return r.cache.DeletePattern(ctx, "quiz:*")
}
