package handler

import (
	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/dto"
	"quiz-funnel/internal/logger"
	"quiz-funnel/internal/middleware"
	"quiz-funnel/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ActionListAll is the legacy query form of the listing endpoint.
const ActionListAll = "list_all"

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	service service.QuizService
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(service service.QuizService) *QuizHandler {
	return &QuizHandler{
		service: service,
	}
}

// GetQuiz godoc
// @Summary Get a published quiz
// @Description Returns the published quiz definition for slug within the caller's namespace
// @Tags quiz
// @Accept json
// @Produce json
// @Param slug path string true "Quiz slug"
// @Success 200 {object} domain.QuizDefinition
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security ApiKeyAuth
// @Router /quiz/{slug} [get]
func (h *QuizHandler) GetQuiz(c *fiber.Ctx) error {
	slug, _ := c.Locals(middleware.ValidatedSlugKey).(string)
	if slug == "" {
		slug = c.Params("slug")
	}
	owner := middleware.OwnerID(c)

	quiz, err := h.service.GetPublishedQuiz(c.UserContext(), owner, slug)
	if err != nil {
		logger.Get().Debug("Quiz lookup failed",
			zap.String("owner", owner),
			zap.String("slug", slug),
			zap.Error(err),
		)
		return err
	}
	return c.JSON(quiz)
}

// ListQuizzes godoc
// @Summary List published quizzes
// @Description Returns title and slug of every published quiz in the caller's namespace
// @Tags quiz
// @Produce json
// @Param action query string false "Legacy listing action" Enums(list_all)
// @Success 200 {object} dto.QuizListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *fiber.Ctx) error {
	if action := c.Query("action"); action != "" && action != ActionListAll {
		return domain.NewInvalidInputError("unsupported action").WithContext("action", action)
	}

	summaries, err := h.service.ListPublished(c.UserContext(), middleware.OwnerID(c))
	if err != nil {
		return err
	}

	resp := dto.QuizListResponse{Data: make([]dto.QuizSummaryResponse, 0, len(summaries))}
	for _, s := range summaries {
		resp.Data = append(resp.Data, dto.QuizSummaryResponse{Title: s.Title, Slug: s.Slug})
	}
	return c.JSON(resp)
}
