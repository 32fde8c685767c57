package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-funnel/internal/adapter"
	"quiz-funnel/internal/cache"
	"quiz-funnel/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, domain.Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, adapter.NewRedisCacheAdapter(client)
}

func publishedQuiz() *domain.QuizDefinition {
	return &domain.QuizDefinition{
		ID:      "01HQUIZ",
		OwnerID: "acme",
		Title:   "Lead quiz",
		Slug:    "lead-quiz",
		Status:  domain.StatusPublished,
		Sessions: []domain.Session{
			{ID: "q1", Type: domain.SessionQuestion, Title: "Pick one", Options: []string{"a", "b"}},
		},
	}
}

func TestQuizService_GetPublishedQuiz_ReadThrough(t *testing.T) {
	mr, c := newTestCache(t)
	repo := new(MockQuizRepository)
	svc := NewQuizService(repo, nil, c, time.Minute)
	ctx := context.Background()

	repo.On("GetBySlug", mock.Anything, "acme", "lead-quiz").Return(publishedQuiz(), nil).Once()

	first, err := svc.GetPublishedQuiz(ctx, "acme", "lead-quiz")
	require.NoError(t, err)
	assert.Equal(t, "01HQUIZ", first.ID)

	key := cache.QuizDefinitionKey("acme", "lead-quiz")
	assert.True(t, mr.Exists(key))
	ttl := mr.TTL(key)
	assert.GreaterOrEqual(t, ttl, time.Minute)
	assert.LessOrEqual(t, ttl, time.Minute+6*time.Second)

	// served from cache; the repository expectation is Once
	second, err := svc.GetPublishedQuiz(ctx, "acme", "lead-quiz")
	require.NoError(t, err)
	assert.Equal(t, first.Sessions, second.Sessions)
	repo.AssertExpectations(t)
}

func TestQuizService_GetPublishedQuiz_NotFound(t *testing.T) {
	_, c := newTestCache(t)
	repo := new(MockQuizRepository)
	svc := NewQuizService(repo, nil, c, time.Minute)

	repo.On("GetBySlug", mock.Anything, "acme", "nope").Return(nil, nil)

	_, err := svc.GetPublishedQuiz(context.Background(), "acme", "nope")
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
}

func TestQuizService_GetPublishedQuiz_DraftIsNotServedOrCached(t *testing.T) {
	mr, c := newTestCache(t)
	repo := new(MockQuizRepository)
	svc := NewQuizService(repo, nil, c, time.Minute)

	draft := publishedQuiz()
	draft.Status = domain.StatusDraft
	repo.On("GetBySlug", mock.Anything, "acme", "lead-quiz").Return(draft, nil)

	_, err := svc.GetPublishedQuiz(context.Background(), "acme", "lead-quiz")
	assert.ErrorIs(t, err, domain.ErrDefinitionUnpublished)
	assert.False(t, mr.Exists(cache.QuizDefinitionKey("acme", "lead-quiz")))
}

func TestQuizService_GetPublishedQuiz_RepositoryError(t *testing.T) {
	repo := new(MockQuizRepository)
	svc := NewQuizService(repo, nil, nil, 0)

	repo.On("GetBySlug", mock.Anything, "acme", "lead-quiz").Return(nil, errors.New("db down"))

	_, err := svc.GetPublishedQuiz(context.Background(), "acme", "lead-quiz")
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInternal, domainErr.Code)
}

func TestQuizService_GetPublishedQuiz_CorruptEntryReloads(t *testing.T) {
	mr, c := newTestCache(t)
	repo := new(MockQuizRepository)
	svc := NewQuizService(repo, nil, c, time.Minute)

	key := cache.QuizDefinitionKey("acme", "lead-quiz")
	require.NoError(t, mr.Set(key, "{broken"))
	repo.On("GetBySlug", mock.Anything, "acme", "lead-quiz").Return(publishedQuiz(), nil).Once()

	quiz, err := svc.GetPublishedQuiz(context.Background(), "acme", "lead-quiz")
	require.NoError(t, err)
	assert.Equal(t, "lead-quiz", quiz.Slug)

	raw, err := mr.Get(key)
	require.NoError(t, err)
	assert.Contains(t, raw, `"slug":"lead-quiz"`)
}

func TestQuizService_GetPublishedQuiz_CacheDownFallsBack(t *testing.T) {
	mr, c := newTestCache(t)
	repo := new(MockQuizRepository)
	svc := NewQuizService(repo, nil, c, time.Minute)
	mr.Close()

	repo.On("GetBySlug", mock.Anything, "acme", "lead-quiz").Return(publishedQuiz(), nil)

	quiz, err := svc.GetPublishedQuiz(context.Background(), "acme", "lead-quiz")
	require.NoError(t, err)
	assert.Equal(t, "01HQUIZ", quiz.ID)
}

func TestQuizService_GetPublishedQuiz_Coalesces(t *testing.T) {
	_, c := newTestCache(t)
	repo := new(MockQuizRepository)
	svc := NewQuizService(repo, nil, c, time.Minute)

	release := make(chan struct{})
	repo.On("GetBySlug", mock.Anything, "acme", "lead-quiz").
		Run(func(mock.Arguments) { <-release }).
		Return(publishedQuiz(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetPublishedQuiz(context.Background(), "acme", "lead-quiz")
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	// at most one load in flight; late arrivals hit the cache
	repo.AssertNumberOfCalls(t, "GetBySlug", 1)
}

func TestQuizService_ListPublished(t *testing.T) {
	mr, c := newTestCache(t)
	repo := new(MockQuizRepository)
	svc := NewQuizService(repo, nil, c, time.Minute)
	ctx := context.Background()

	list := []domain.QuizSummary{{Title: "Lead quiz", Slug: "lead-quiz"}}
	repo.On("ListPublished", mock.Anything, "acme").Return(list, nil).Once()

	got, err := svc.ListPublished(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, list, got)
	assert.True(t, mr.Exists(cache.QuizListKey("acme")))

	got, err = svc.ListPublished(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, list, got)
	repo.AssertExpectations(t)
}

func TestQuizService_ListPublished_EmptyIsNotNil(t *testing.T) {
	repo := new(MockQuizRepository)
	svc := NewQuizService(repo, nil, nil, 0)
	repo.On("ListPublished", mock.Anything, "acme").Return(nil, nil)

	got, err := svc.ListPublished(context.Background(), "acme")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestQuizService_SaveQuiz_InvalidatesCache(t *testing.T) {
	mr, c := newTestCache(t)
	repo := new(MockQuizRepository)
	tx := new(MockTransactionManager)
	svc := NewQuizService(repo, tx, c, time.Minute)

	defKey := cache.QuizDefinitionKey("acme", "lead-quiz")
	listKey := cache.QuizListKey("acme")
	require.NoError(t, mr.Set(defKey, "{}"))
	require.NoError(t, mr.Set(listKey, "[]"))

	quiz := publishedQuiz()
	tx.On("WithTransaction", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("Save", mock.Anything, quiz).Return(nil).Once()

	require.NoError(t, svc.SaveQuiz(context.Background(), quiz))
	assert.False(t, mr.Exists(defKey))
	assert.False(t, mr.Exists(listKey))
	tx.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestQuizService_SaveQuiz_RejectsInvalid(t *testing.T) {
	repo := new(MockQuizRepository)
	svc := NewQuizService(repo, nil, nil, 0)

	quiz := publishedQuiz()
	quiz.Sessions[0].Options = []string{"only"}
	err := svc.SaveQuiz(context.Background(), quiz)

	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "sessions[0].options", verrs[0].Field)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestQuizService_SaveQuiz_RequiresOwner(t *testing.T) {
	svc := NewQuizService(new(MockQuizRepository), nil, nil, 0)
	quiz := publishedQuiz()
	quiz.OwnerID = ""

	var verrs domain.ValidationErrors
	require.ErrorAs(t, svc.SaveQuiz(context.Background(), quiz), &verrs)
	assert.Equal(t, "ownerId", verrs[0].Field)
}

func TestQuizService_SaveQuiz_StoreError(t *testing.T) {
	repo := new(MockQuizRepository)
	svc := NewQuizService(repo, nil, nil, 0)
	quiz := publishedQuiz()
	repo.On("Save", mock.Anything, quiz).Return(errors.New("unique violation"))

	err := svc.SaveQuiz(context.Background(), quiz)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInternal, domainErr.Code)
}
