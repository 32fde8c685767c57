// Package apiclient talks to the quiz API on behalf of front ends that run
// the engine outside the server (the terminal player, embedded widgets).
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/dto"
	"quiz-funnel/internal/schema"

	"github.com/gofiber/fiber/v2"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	apiKey  string
	token   string
	timeout time.Duration
}

type Option func(*Client)

// WithAPIKey sets the apikey header identifying the owner namespace.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithBearerToken sets the Authorization bearer credential.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) prepare(ctx context.Context, a *fiber.Agent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout || timeout <= 0 {
			timeout = left
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}
	a.Timeout(timeout)
	if c.apiKey != "" {
		a.Set("apikey", c.apiKey)
	}
	if c.token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	return nil
}

func firstErr(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

// apiError decodes an {error, details} body into an error carrying the status.
func apiError(code int, body []byte) error {
	var e dto.ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
		return fmt.Errorf("unexpected status %d", code)
	}
	if e.Details != nil {
		return fmt.Errorf("status %d: %s (%v)", code, e.Error, e.Details)
	}
	return fmt.Errorf("status %d: %s", code, e.Error)
}

// FetchQuiz loads a published definition by slug. The payload is schema
// validated before decoding.
func (c *Client) FetchQuiz(ctx context.Context, slug string) (*domain.QuizDefinition, error) {
	a := fiber.Get(c.baseURL + "/quiz/" + url.PathEscape(slug))
	if err := c.prepare(ctx, a); err != nil {
		fiber.ReleaseAgent(a)
		return nil, err
	}
	code, body, errs := a.Bytes()
	if err := firstErr(errs); err != nil {
		return nil, fmt.Errorf("fetch quiz %s: %w", slug, err)
	}

	switch {
	case code == fiber.StatusNotFound:
		return nil, domain.NewDefinitionNotFoundError(slug)
	case code == fiber.StatusUnauthorized || code == fiber.StatusForbidden:
		return nil, domain.NewUnauthorizedError(apiError(code, body).Error())
	case code < 200 || code > 299:
		return nil, fmt.Errorf("fetch quiz %s: %w", slug, apiError(code, body))
	}

	if err := schema.ValidateDefinition(body); err != nil {
		return nil, err
	}
	var def domain.QuizDefinition
	if err := json.Unmarshal(body, &def); err != nil {
		return nil, domain.NewMalformedDefinitionError("quiz definition could not be decoded", err)
	}
	if !def.IsPublished() {
		return nil, domain.NewDefinitionUnpublishedError(slug)
	}
	return &def, nil
}

// Load satisfies engine.Loader.
func (c *Client) Load(ctx context.Context, slug string) (*domain.QuizDefinition, error) {
	return c.FetchQuiz(ctx, slug)
}

// ListQuizzes returns the published quizzes visible to the API key.
func (c *Client) ListQuizzes(ctx context.Context) ([]dto.QuizSummaryResponse, error) {
	a := fiber.Get(c.baseURL + "/quizzes?action=list_all")
	if err := c.prepare(ctx, a); err != nil {
		fiber.ReleaseAgent(a)
		return nil, err
	}
	code, body, errs := a.Bytes()
	if err := firstErr(errs); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	if code < 200 || code > 299 {
		return nil, fmt.Errorf("list quizzes: %w", apiError(code, body))
	}
	var out dto.QuizListResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode quiz list: %w", err)
	}
	return out.Data, nil
}

// SubmitResponse posts one completed run.
func (c *Client) SubmitResponse(ctx context.Context, req *dto.SubmitQuizResponseRequest) (*dto.SubmitQuizResponseResponse, error) {
	a := fiber.Post(c.baseURL + "/submit-quiz-response").JSON(req)
	if err := c.prepare(ctx, a); err != nil {
		fiber.ReleaseAgent(a)
		return nil, err
	}
	code, body, errs := a.Bytes()
	if err := firstErr(errs); err != nil {
		return nil, fmt.Errorf("submit response: %w", err)
	}
	if code < 200 || code > 299 {
		return nil, fmt.Errorf("submit response: %w", apiError(code, body))
	}
	var out dto.SubmitQuizResponseResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode submit response: %w", err)
	}
	return &out, nil
}
