package handler

import (
	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/dto"
	"quiz-funnel/internal/shortcode"
	"quiz-funnel/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// EmbedHandler resolves quiz shortcodes for embedding hosts.
type EmbedHandler struct {
	validator *validation.Validator
}

func NewEmbedHandler() *EmbedHandler {
	return &EmbedHandler{validator: validation.NewValidator()}
}

// Render godoc
// @Summary Resolve quiz shortcodes
// @Description Replaces every [quiz slug="..."] token in content with a widget mount point
// @Tags embed
// @Accept json
// @Produce json
// @Param request body dto.EmbedRenderRequest true "Host content"
// @Success 200 {object} dto.EmbedRenderResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security ApiKeyAuth
// @Router /embed/render [post]
func (h *EmbedHandler) Render(c *fiber.Ctx) error {
	var req dto.EmbedRenderRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("request body is not valid JSON")
	}
	if errs := h.validator.ValidateEmbedRequest(&req); len(errs) > 0 {
		return errs
	}

	content, slugs := shortcode.Render(req.Content)
	return c.JSON(dto.EmbedRenderResponse{Content: content, Slugs: slugs})
}
