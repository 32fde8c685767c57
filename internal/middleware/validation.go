package middleware

import (
	"encoding/json"

	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/dto"
	"quiz-funnel/internal/schema"
	"quiz-funnel/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const (
	ValidatedSlugKey       = "validated_slug"
	ValidatedSubmissionKey = "validated_submission"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateSlug validates the :slug path parameter
func (vm *ValidationMiddleware) ValidateSlug() fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if errors := vm.validator.ValidateSlug(slug); len(errors) > 0 {
			return errors // This will be handled by ErrorHandler middleware
		}

		c.Locals(ValidatedSlugKey, slug)
		return c.Next()
	}
}

// ValidateSubmission schema-checks the raw body, decodes it and applies the
// field bounds. The decoded request is stored in locals.
func (vm *ValidationMiddleware) ValidateSubmission() fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := c.Body()
		if len(body) == 0 {
			return domain.NewInvalidInputError("request body is required")
		}
		if err := schema.ValidateSubmission(body); err != nil {
			return err
		}

		var req dto.SubmitQuizResponseRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return domain.NewInvalidInputError("request body is not valid JSON")
		}
		if errors := vm.validator.ValidateSubmitRequest(&req); len(errors) > 0 {
			return errors
		}

		c.Locals(ValidatedSubmissionKey, &req)
		return c.Next()
	}
}
