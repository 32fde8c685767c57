package engine

import (
	"encoding/json"

	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/interstitial"
)

// State is a node of the run state machine.
type State string

const (
	StateLoading     State = "loading"
	StateSession     State = "session"
	StateAd          State = "ad"
	StateProcessing  State = "processing"
	StateResult      State = "result"
	StateRedirecting State = "redirecting"
	StateError       State = "error"
)

type SubmissionStatus string

const (
	SubmissionNone      SubmissionStatus = ""
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionSucceeded SubmissionStatus = "succeeded"
	SubmissionFailed    SubmissionStatus = "failed"
)

// Submission reports the gateway outcome. It never influences the state path.
type Submission struct {
	Status     SubmissionStatus `json:"status,omitempty"`
	ResponseID string           `json:"responseId,omitempty"`
	Error      string           `json:"error,omitempty"`
}

type AdView struct {
	// Final is true for the ad shown after processing.
	Final bool `json:"final"`
	interstitial.Payload
}

type RedirectView struct {
	URL       string `json:"url"`
	Remaining int    `json:"remaining"`
}

type ErrorView struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// Snapshot is the render state published after every change.
type Snapshot struct {
	RunID string `json:"runId"`
	Seq   int    `json:"seq"`
	State State  `json:"state"`

	Slug   string          `json:"slug"`
	QuizID string          `json:"quizId,omitempty"`
	Title  string          `json:"title,omitempty"`
	Design json.RawMessage `json:"design,omitempty"`

	Index    int             `json:"index"`
	Total    int             `json:"total"`
	Session  *domain.Session `json:"session,omitempty"`
	Selected string          `json:"selected,omitempty"`

	Ad             *AdView       `json:"ad,omitempty"`
	ProcessingText string        `json:"processingText,omitempty"`
	ResultText     string        `json:"resultText,omitempty"`
	Redirect       *RedirectView `json:"redirect,omitempty"`
	Submission     Submission    `json:"submission"`
	Error          *ErrorView    `json:"error,omitempty"`
}
