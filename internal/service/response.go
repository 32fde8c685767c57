package service

import (
	"context"
	"encoding/json"
	"errors"

	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/dto"
	"quiz-funnel/internal/logger"

	"go.uber.org/zap"
)

// WebhookQueue accepts deliveries for asynchronous dispatch.
type WebhookQueue interface {
	Enqueue(ctx context.Context, job domain.WebhookJob) error
}

// ResponseService records completed runs. It satisfies gateway.Recorder.
type ResponseService interface {
	Record(ctx context.Context, req *dto.SubmitQuizResponseRequest) (*domain.QuizResponse, error)
}

type responseService struct {
	quizzes   domain.QuizRepository
	responses domain.ResponseRepository
	webhooks  WebhookQueue
}

// NewResponseService creates a ResponseService. webhooks may be nil.
func NewResponseService(quizzes domain.QuizRepository, responses domain.ResponseRepository, webhooks WebhookQueue) ResponseService {
	return &responseService{quizzes: quizzes, responses: responses, webhooks: webhooks}
}

// Record implements ResponseService
func (s *responseService) Record(ctx context.Context, req *dto.SubmitQuizResponseRequest) (*domain.QuizResponse, error) {
	if req == nil {
		return nil, domain.NewInvalidInputError("request body is required")
	}
	var errs domain.ValidationErrors
	if req.QuizID == "" {
		errs = append(errs, domain.NewMissingFieldError("quizId"))
	}
	if req.SessionID == "" {
		errs = append(errs, domain.NewMissingFieldError("sessionId"))
	}
	if req.ResponseData == nil {
		errs = append(errs, domain.NewMissingFieldError("responseData"))
	}
	if len(errs) > 0 {
		return nil, errs
	}

	quiz, err := s.quizzes.GetByID(ctx, req.QuizID)
	if err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, domain.NewInternalError("Failed to get quiz", err)
	}
	if quiz == nil {
		return nil, domain.NewError(domain.CodeDefinitionNotFound, "Quiz not found", nil).
			WithContext("quizId", req.QuizID)
	}

	response := &domain.QuizResponse{
		QuizID:       quiz.ID,
		SessionID:    req.SessionID,
		UserAgent:    req.UserAgent,
		ResponseData: domain.AnswerSet(req.ResponseData).Clone(),
	}
	if err := s.responses.Save(ctx, response); err != nil {
		return nil, domain.NewInternalError("Failed to save response", err)
	}

	logger.Get().Info("Quiz response recorded",
		zap.String("quizID", response.QuizID),
		zap.String("responseID", response.ID),
		zap.String("sessionID", response.SessionID))

	s.enqueueWebhook(ctx, quiz, response)
	return response, nil
}

func (s *responseService) enqueueWebhook(ctx context.Context, quiz *domain.QuizDefinition, response *domain.QuizResponse) {
	if s.webhooks == nil || !quiz.Settings.Webhook.Enabled || quiz.Settings.Webhook.URL == "" {
		return
	}
	data, err := json.Marshal(response.ResponseData)
	if err != nil {
		logger.Get().Error("Failed to encode webhook payload", zap.String("responseID", response.ID), zap.Error(err))
		return
	}
	job := domain.WebhookJob{
		URL: quiz.Settings.Webhook.URL,
		Payload: domain.WebhookPayload{
			Event:        domain.WebhookEvent,
			QuizID:       response.QuizID,
			ResponseID:   response.ID,
			SessionID:    response.SessionID,
			ResponseData: data,
			SubmittedAt:  response.CreatedAt,
		},
	}
	// persistence already succeeded; a dropped delivery is not the submitter's failure
	if err := s.webhooks.Enqueue(ctx, job); err != nil {
		logger.Get().Warn("Webhook not queued",
			zap.String("responseID", response.ID),
			zap.String("url", job.URL),
			zap.Error(err))
	}
}
