package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quiz-funnel/internal/auth"
	"quiz-funnel/internal/config"
	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/dto"
	"quiz-funnel/internal/handler"
	"quiz-funnel/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey = "test-key"
	testOwner  = "acme"
	testQuizID = "01HZY3X6V2J6Q9W8E7R5T4Y3V2"
)

// MockQuizService is a mock implementation of service.QuizService
type MockQuizService struct {
	mock.Mock
}

func (m *MockQuizService) GetPublishedQuiz(ctx context.Context, ownerID, slug string) (*domain.QuizDefinition, error) {
	args := m.Called(ctx, ownerID, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizDefinition), args.Error(1)
}

func (m *MockQuizService) ListPublished(ctx context.Context, ownerID string) ([]domain.QuizSummary, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.QuizSummary), args.Error(1)
}

func (m *MockQuizService) SaveQuiz(ctx context.Context, quiz *domain.QuizDefinition) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

// MockResponseService is a mock implementation of service.ResponseService
type MockResponseService struct {
	mock.Mock
}

func (m *MockResponseService) Record(ctx context.Context, req *dto.SubmitQuizResponseRequest) (*domain.QuizResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizResponse), args.Error(1)
}

type testAPI struct {
	app       *fiber.App
	quizzes   *MockQuizService
	responses *MockResponseService
}

func newTestAPI(t *testing.T, checks map[string]handler.Pinger) *testAPI {
	t.Helper()
	quizzes := new(MockQuizService)
	responses := new(MockResponseService)
	a := auth.New(config.AuthConfig{APIKeys: []config.APIKey{{Key: testAPIKey, Owner: testOwner}}})

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	handler.RegisterRoutes(app, a, handler.Handlers{
		Quiz:     handler.NewQuizHandler(quizzes),
		Response: handler.NewResponseHandler(responses),
		Embed:    handler.NewEmbedHandler(),
		Health:   handler.NewHealthHandler(checks),
	})
	t.Cleanup(func() {
		quizzes.AssertExpectations(t)
		responses.AssertExpectations(t)
	})
	return &testAPI{app: app, quizzes: quizzes, responses: responses}
}

func (a *testAPI) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func authed(req *http.Request) *http.Request {
	req.Header.Set(middleware.APIKeyHeader, testAPIKey)
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestGetQuiz(t *testing.T) {
	api := newTestAPI(t, nil)
	quiz := &domain.QuizDefinition{ID: testQuizID, Slug: "lead-quiz", Title: "Lead quiz", Status: domain.StatusPublished}
	api.quizzes.On("GetPublishedQuiz", mock.Anything, testOwner, "lead-quiz").Return(quiz, nil)

	resp, body := api.do(t, authed(httptest.NewRequest(http.MethodGet, "/quiz/lead-quiz", nil)))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got domain.QuizDefinition
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, testQuizID, got.ID)
	assert.Equal(t, "Lead quiz", got.Title)
}

func TestGetQuiz_Errors(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		api := newTestAPI(t, nil)
		resp, _ := api.do(t, httptest.NewRequest(http.MethodGet, "/quiz/lead-quiz", nil))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invalid slug", func(t *testing.T) {
		api := newTestAPI(t, nil)
		resp, body := api.do(t, authed(httptest.NewRequest(http.MethodGet, "/quiz/Bad_Slug", nil)))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(body), "VALIDATION_ERROR")
	})

	t.Run("not found", func(t *testing.T) {
		api := newTestAPI(t, nil)
		api.quizzes.On("GetPublishedQuiz", mock.Anything, testOwner, "missing").
			Return(nil, domain.NewDefinitionNotFoundError("missing"))

		resp, body := api.do(t, authed(httptest.NewRequest(http.MethodGet, "/quiz/missing", nil)))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var errResp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(body, &errResp))
		assert.Equal(t, "DEFINITION_NOT_FOUND", errResp.Code)
	})

	t.Run("draft", func(t *testing.T) {
		api := newTestAPI(t, nil)
		api.quizzes.On("GetPublishedQuiz", mock.Anything, testOwner, "draft").
			Return(nil, domain.NewDefinitionUnpublishedError("draft"))

		resp, _ := api.do(t, authed(httptest.NewRequest(http.MethodGet, "/quiz/draft", nil)))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestListQuizzes(t *testing.T) {
	for _, target := range []string{"/quizzes", "/quizzes?action=list_all"} {
		t.Run(target, func(t *testing.T) {
			api := newTestAPI(t, nil)
			api.quizzes.On("ListPublished", mock.Anything, testOwner).Return([]domain.QuizSummary{
				{Title: "A quiz", Slug: "a-quiz"},
				{Title: "B quiz", Slug: "b-quiz"},
			}, nil)

			resp, body := api.do(t, authed(httptest.NewRequest(http.MethodGet, target, nil)))

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			var got dto.QuizListResponse
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, []dto.QuizSummaryResponse{
				{Title: "A quiz", Slug: "a-quiz"},
				{Title: "B quiz", Slug: "b-quiz"},
			}, got.Data)
		})
	}
}

func TestListQuizzes_EmptyIsArray(t *testing.T) {
	api := newTestAPI(t, nil)
	api.quizzes.On("ListPublished", mock.Anything, testOwner).Return([]domain.QuizSummary{}, nil)

	resp, body := api.do(t, authed(httptest.NewRequest(http.MethodGet, "/quizzes", nil)))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":[]}`, string(body))
}

func TestListQuizzes_UnknownAction(t *testing.T) {
	api := newTestAPI(t, nil)
	resp, _ := api.do(t, authed(httptest.NewRequest(http.MethodGet, "/quizzes?action=delete_all", nil)))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitResponse(t *testing.T) {
	api := newTestAPI(t, nil)
	api.responses.On("Record", mock.Anything, mock.MatchedBy(func(req *dto.SubmitQuizResponseRequest) bool {
		return req.QuizID == testQuizID &&
			req.SessionID == "run-1" &&
			req.UserAgent == "widget/1.0" &&
			req.ResponseData["q1"] == "A"
	})).Return(&domain.QuizResponse{ID: "resp-1"}, nil)

	body := `{"quizId":"` + testQuizID + `","sessionId":"run-1","userAgent":"widget/1.0","responseData":{"q1":"A","name":"Bob"}}`
	resp, out := api.do(t, jsonRequest(http.MethodPost, "/submit-quiz-response", body))

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var got dto.SubmitQuizResponseResponse
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "resp-1", got.ResponseID)
	assert.Equal(t, "Response submitted successfully", got.Message)
}

func TestSubmitResponse_FallsBackToRequestUserAgent(t *testing.T) {
	api := newTestAPI(t, nil)
	api.responses.On("Record", mock.Anything, mock.MatchedBy(func(req *dto.SubmitQuizResponseRequest) bool {
		return req.UserAgent == "curl/8.0"
	})).Return(&domain.QuizResponse{ID: "resp-2"}, nil)

	req := jsonRequest(http.MethodPost, "/submit-quiz-response",
		`{"quizId":"`+testQuizID+`","sessionId":"run-2","responseData":{}}`)
	req.Header.Set(fiber.HeaderUserAgent, "curl/8.0")
	resp, _ := api.do(t, req)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestSubmitResponse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"empty body", "", http.StatusBadRequest},
		{"missing session", `{"quizId":"` + testQuizID + `","responseData":{}}`, http.StatusBadRequest},
		{"non-string answer", `{"quizId":"` + testQuizID + `","sessionId":"s","responseData":{"q1":3}}`, http.StatusBadRequest},
		{"quiz id not a ulid", `{"quizId":"quiz-1","sessionId":"s","responseData":{}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, nil)
			resp, _ := api.do(t, jsonRequest(http.MethodPost, "/submit-quiz-response", tt.body))
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestSubmitResponse_UnknownQuiz(t *testing.T) {
	api := newTestAPI(t, nil)
	api.responses.On("Record", mock.Anything, mock.Anything).
		Return(nil, domain.NewError(domain.CodeDefinitionNotFound, "Quiz not found", nil))

	resp, out := api.do(t, jsonRequest(http.MethodPost, "/submit-quiz-response",
		`{"quizId":"`+testQuizID+`","sessionId":"s","responseData":{}}`))

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(out, &errResp))
	assert.Equal(t, "Quiz not found", errResp.Error)
}

func TestEmbedRender(t *testing.T) {
	api := newTestAPI(t, nil)
	resp, out := api.do(t, authed(jsonRequest(http.MethodPost, "/embed/render",
		`{"content":"<p>[quiz slug=\"lead-quiz\"]</p>"}`)))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got dto.EmbedRenderResponse
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, []string{"lead-quiz"}, got.Slugs)
	assert.Contains(t, got.Content, `data-quiz-slug="lead-quiz"`)
	assert.NotContains(t, got.Content, "[quiz")
}

func TestEmbedRender_RequiresAPIKey(t *testing.T) {
	api := newTestAPI(t, nil)
	resp, _ := api.do(t, jsonRequest(http.MethodPost, "/embed/render", `{"content":""}`))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ok := handler.PingerFunc(func(context.Context) error { return nil })
	down := handler.PingerFunc(func(context.Context) error { return errors.New("connection refused") })

	api := newTestAPI(t, map[string]handler.Pinger{"database": ok})
	resp, out := api.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok"}}`, string(out))

	api = newTestAPI(t, map[string]handler.Pinger{"database": ok, "cache": down})
	resp, out = api.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var got dto.HealthResponse
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "degraded", got.Status)
	assert.Equal(t, "connection refused", got.Checks["cache"])
}
