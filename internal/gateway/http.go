package gateway

import (
	"context"

	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/dto"
)

// ResponseClient is the transport used by HTTP; apiclient.Client implements it.
type ResponseClient interface {
	SubmitResponse(ctx context.Context, req *dto.SubmitQuizResponseRequest) (*dto.SubmitQuizResponseResponse, error)
}

// HTTP submits over POST /submit-quiz-response.
type HTTP struct {
	client ResponseClient
}

func NewHTTP(client ResponseClient) *HTTP {
	return &HTTP{client: client}
}

func (h *HTTP) Submit(ctx context.Context, quizID, runSessionID, userAgent string, answers domain.AnswerSet) (*Ack, error) {
	resp, err := h.client.SubmitResponse(ctx, &dto.SubmitQuizResponseRequest{
		QuizID:       quizID,
		SessionID:    runSessionID,
		UserAgent:    userAgent,
		ResponseData: answers,
	})
	if err != nil {
		return nil, domain.NewSubmissionError("failed to submit response", err)
	}
	return &Ack{ResponseID: resp.ResponseID, Message: resp.Message}, nil
}
