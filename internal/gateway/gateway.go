// Package gateway delivers a completed run's answers to the response store.
package gateway

import (
	"context"

	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/dto"
)

// Ack acknowledges a stored response.
type Ack struct {
	ResponseID string
	Message    string
}

// Submitter persists one completed run. Implementations make a single
// attempt; the caller decides what a failure means.
type Submitter interface {
	Submit(ctx context.Context, quizID, runSessionID, userAgent string, answers domain.AnswerSet) (*Ack, error)
}

// Recorder is the in-process store used by Local.
type Recorder interface {
	Record(ctx context.Context, req *dto.SubmitQuizResponseRequest) (*domain.QuizResponse, error)
}

// Local submits to a Recorder in the same process, as server-driven runs do.
type Local struct {
	recorder Recorder
}

func NewLocal(recorder Recorder) *Local {
	return &Local{recorder: recorder}
}

func (l *Local) Submit(ctx context.Context, quizID, runSessionID, userAgent string, answers domain.AnswerSet) (*Ack, error) {
	resp, err := l.recorder.Record(ctx, &dto.SubmitQuizResponseRequest{
		QuizID:       quizID,
		SessionID:    runSessionID,
		UserAgent:    userAgent,
		ResponseData: answers,
	})
	if err != nil {
		return nil, domain.NewSubmissionError("failed to record response", err)
	}
	return &Ack{ResponseID: resp.ID, Message: "Response submitted successfully"}, nil
}

// Discard accepts every submission without storing it; used for offline play.
type Discard struct{}

func (Discard) Submit(context.Context, string, string, string, domain.AnswerSet) (*Ack, error) {
	return &Ack{Message: "discarded"}, nil
}

// Func adapts a function to Submitter.
type Func func(ctx context.Context, quizID, runSessionID, userAgent string, answers domain.AnswerSet) (*Ack, error)

func (f Func) Submit(ctx context.Context, quizID, runSessionID, userAgent string, answers domain.AnswerSet) (*Ack, error) {
	return f(ctx, quizID, runSessionID, userAgent, answers)
}
