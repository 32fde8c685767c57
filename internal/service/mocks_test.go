package service

import (
	"context"

	"quiz-funnel/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockQuizRepository ---
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) GetBySlug(ctx context.Context, ownerID, slug string) (*domain.QuizDefinition, error) {
	args := m.Called(ctx, ownerID, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizDefinition), args.Error(1)
}

func (m *MockQuizRepository) GetByID(ctx context.Context, id string) (*domain.QuizDefinition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizDefinition), args.Error(1)
}

func (m *MockQuizRepository) ListPublished(ctx context.Context, ownerID string) ([]domain.QuizSummary, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.QuizSummary), args.Error(1)
}

func (m *MockQuizRepository) Save(ctx context.Context, quiz *domain.QuizDefinition) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

// --- MockResponseRepository ---
type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) Save(ctx context.Context, response *domain.QuizResponse) error {
	args := m.Called(ctx, response)
	return args.Error(0)
}

func (m *MockResponseRepository) CountByQuiz(ctx context.Context, quizID string) (int, error) {
	args := m.Called(ctx, quizID)
	return args.Int(0), args.Error(1)
}

// --- MockTransactionManager ---
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

// --- MockWebhookQueue ---
type MockWebhookQueue struct {
	mock.Mock
}

func (m *MockWebhookQueue) Enqueue(ctx context.Context, job domain.WebhookJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}
