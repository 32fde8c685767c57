package handler

import (
	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/dto"
	"quiz-funnel/internal/middleware"
	"quiz-funnel/internal/service"

	"github.com/gofiber/fiber/v2"
)

const submitSuccessMessage = "Response submitted successfully"

// ResponseHandler records completed runs posted by front ends.
type ResponseHandler struct {
	service service.ResponseService
}

func NewResponseHandler(service service.ResponseService) *ResponseHandler {
	return &ResponseHandler{service: service}
}

// SubmitResponse godoc
// @Summary Submit quiz answers
// @Description Stores the answers of one completed run and queues the quiz webhook
// @Tags responses
// @Accept json
// @Produce json
// @Param request body dto.SubmitQuizResponseRequest true "Run answers"
// @Success 201 {object} dto.SubmitQuizResponseResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /submit-quiz-response [post]
func (h *ResponseHandler) SubmitResponse(c *fiber.Ctx) error {
	req, ok := c.Locals(middleware.ValidatedSubmissionKey).(*dto.SubmitQuizResponseRequest)
	if !ok || req == nil {
		return domain.NewInvalidInputError("request body is required")
	}
	if req.UserAgent == "" {
		req.UserAgent = c.Get(fiber.HeaderUserAgent)
	}

	resp, err := h.service.Record(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SubmitQuizResponseResponse{
		Message:    submitSuccessMessage,
		ResponseID: resp.ID,
	})
}
