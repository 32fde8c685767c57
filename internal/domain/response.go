package domain

import (
	"encoding/json"
	"time"
)

// AnswerSet maps a session id (question) or a form field name to the answer.
type AnswerSet map[string]string

// Clone returns an independent copy.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// QuizResponse is one completed run as persisted by the store.
type QuizResponse struct {
	ID           string    `json:"id"`
	QuizID       string    `json:"quizId"`
	SessionID    string    `json:"sessionId"`
	UserAgent    string    `json:"userAgent"`
	ResponseData AnswerSet `json:"responseData"`
	CreatedAt    time.Time `json:"createdAt"`
}

// WebhookEvent names the only event the dispatcher emits.
const WebhookEvent = "quiz.response"

// WebhookPayload is the JSON body posted to a quiz's webhook URL.
type WebhookPayload struct {
	Event        string          `json:"event"`
	QuizID       string          `json:"quizId"`
	ResponseID   string          `json:"responseId"`
	SessionID    string          `json:"sessionId"`
	ResponseData json.RawMessage `json:"responseData"`
	SubmittedAt  time.Time       `json:"submittedAt"`
}

// WebhookJob is a delivery request queued after a response is persisted.
type WebhookJob struct {
	URL     string
	Payload WebhookPayload
}
