package dto

// QuizSummaryResponse is one entry of the published-quiz listing
// @Description Published quiz title and slug
type QuizSummaryResponse struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// QuizListResponse wraps the published-quiz listing
// @Description Published quizzes of the caller's namespace
type QuizListResponse struct {
	Data []QuizSummaryResponse `json:"data"`
}

// SubmitQuizResponseRequest is the body of a response submission
// @Description Answers collected by one completed run
type SubmitQuizResponseRequest struct {
	QuizID       string            `json:"quizId"`
	SessionID    string            `json:"sessionId"`
	UserAgent    string            `json:"userAgent"`
	ResponseData map[string]string `json:"responseData"`
}

// SubmitQuizResponseResponse acknowledges a stored response
type SubmitQuizResponseResponse struct {
	Message    string `json:"message"`
	ResponseID string `json:"responseId"`
}

// EmbedRenderRequest carries host content containing quiz shortcodes
type EmbedRenderRequest struct {
	Content string `json:"content"`
}

// EmbedRenderResponse returns the content with shortcodes resolved to mount points
type EmbedRenderResponse struct {
	Content string   `json:"content"`
	Slugs   []string `json:"slugs"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse reports dependency health
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
