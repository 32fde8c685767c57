package service

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"quiz-funnel/internal/adapter"
	"quiz-funnel/internal/cache"
	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DefaultQuizTTL = 10 * time.Minute

// QuizService defines the interface for quiz-related operations
type QuizService interface {
	// GetPublishedQuiz returns the owner's published quiz for slug, served from cache when possible.
	GetPublishedQuiz(ctx context.Context, ownerID, slug string) (*domain.QuizDefinition, error)
	ListPublished(ctx context.Context, ownerID string) ([]domain.QuizSummary, error)
	// SaveQuiz validates and upserts a definition, then drops the owner's cached entries.
	SaveQuiz(ctx context.Context, quiz *domain.QuizDefinition) error
}

// quizService implements QuizService
type quizService struct {
	repo  domain.QuizRepository
	tx    domain.TransactionManager
	cache domain.Cache
	ttl   time.Duration
	sf    singleflight.Group
}

// NewQuizService creates a new instance of quizService. A nil cache disables caching.
func NewQuizService(repo domain.QuizRepository, tx domain.TransactionManager, c domain.Cache, ttl time.Duration) QuizService {
	if c == nil {
		c = adapter.NoopCache{}
	}
	if ttl <= 0 {
		ttl = DefaultQuizTTL
	}
	return &quizService{repo: repo, tx: tx, cache: c, ttl: ttl}
}

// GetPublishedQuiz implements QuizService
func (s *quizService) GetPublishedQuiz(ctx context.Context, ownerID, slug string) (*domain.QuizDefinition, error) {
	key := cache.QuizDefinitionKey(ownerID, slug)
	if quiz, ok := s.cachedQuiz(ctx, key); ok {
		return quiz, nil
	}

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		// another caller may have filled the entry while we waited
		if quiz, ok := s.cachedQuiz(ctx, key); ok {
			return quiz, nil
		}

		quiz, err := s.repo.GetBySlug(ctx, ownerID, slug)
		if err != nil {
			var domainErr *domain.DomainError
			if errors.As(err, &domainErr) {
				return nil, err
			}
			return nil, domain.NewInternalError("Failed to get quiz", err)
		}
		if quiz == nil {
			return nil, domain.NewDefinitionNotFoundError(slug)
		}
		if !quiz.IsPublished() {
			return nil, domain.NewDefinitionUnpublishedError(slug)
		}

		s.store(ctx, key, quiz)
		return quiz, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.QuizDefinition), nil
}

// ListPublished implements QuizService
func (s *quizService) ListPublished(ctx context.Context, ownerID string) ([]domain.QuizSummary, error) {
	key := cache.QuizListKey(ownerID)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var list []domain.QuizSummary
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			return list, nil
		}
		logger.Get().Warn("Discarding unreadable cached quiz list", zap.String("key", key))
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		logger.Get().Warn("Quiz list cache read failed", zap.String("key", key), zap.Error(err))
	}

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		list, err := s.repo.ListPublished(ctx, ownerID)
		if err != nil {
			return nil, domain.NewInternalError("Failed to list quizzes", err)
		}
		if list == nil {
			list = []domain.QuizSummary{}
		}
		s.store(ctx, key, list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizSummary), nil
}

// SaveQuiz implements QuizService
func (s *quizService) SaveQuiz(ctx context.Context, quiz *domain.QuizDefinition) error {
	if quiz == nil {
		return domain.NewInvalidInputError("quiz is required")
	}
	if quiz.OwnerID == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("ownerId")}
	}
	if err := quiz.ValidateAuthoring(); err != nil {
		return err
	}

	save := func(ctx context.Context) error { return s.repo.Save(ctx, quiz) }
	var err error
	if s.tx != nil {
		err = s.tx.WithTransaction(ctx, save)
	} else {
		err = save(ctx)
	}
	if err != nil {
		return domain.NewInternalError("Failed to save quiz", err)
	}

	for _, key := range []string{cache.QuizDefinitionKey(quiz.OwnerID, quiz.Slug), cache.QuizListKey(quiz.OwnerID)} {
		if err := s.cache.Delete(ctx, key); err != nil {
			logger.Get().Warn("Failed to invalidate quiz cache", zap.String("key", key), zap.Error(err))
		}
	}
	logger.Get().Info("Quiz saved",
		zap.String("quizID", quiz.ID),
		zap.String("ownerID", quiz.OwnerID),
		zap.String("slug", quiz.Slug),
		zap.String("status", string(quiz.Status)))
	return nil
}

func (s *quizService) cachedQuiz(ctx context.Context, key string) (*domain.QuizDefinition, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Quiz cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var quiz domain.QuizDefinition
	if err := json.Unmarshal([]byte(raw), &quiz); err != nil {
		logger.Get().Warn("Discarding unreadable cached quiz", zap.String("key", key), zap.Error(err))
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}
	return &quiz, true
}

func (s *quizService) store(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		logger.Get().Warn("Failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.ttlWithJitter()); err != nil {
		logger.Get().Warn("Quiz cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// ttlWithJitter spreads expiry over [ttl, ttl*1.1] so entries do not lapse together.
func (s *quizService) ttlWithJitter() time.Duration {
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
