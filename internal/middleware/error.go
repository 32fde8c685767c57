package middleware

import (
	"errors"
	"net/http"

	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/dto"
	"quiz-funnel/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler is a centralized error handling middleware. Every failure is
// rendered as {error, code, details}.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		logger := logger.Get()

		// Handle validation errors
		var validationErrs domain.ValidationErrors
		if errors.As(err, &validationErrs) {
			logger.Warn("Validation errors occurred",
				zap.String("path", c.Path()),
				zap.Int("error_count", len(validationErrs)),
			)
			return c.Status(http.StatusBadRequest).JSON(dto.ErrorResponse{
				Error:   "Request validation failed",
				Code:    string(domain.CodeValidation),
				Details: []domain.ValidationError(validationErrs),
			})
		}

		// Handle domain errors
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			statusCode := mapDomainErrorToHTTPStatus(domainErr)

			fields := []zap.Field{
				zap.String("code", string(domainErr.Code)),
				zap.String("message", domainErr.Message),
				zap.Int("status", statusCode),
				zap.String("path", c.Path()),
			}
			if domainErr.Cause != nil {
				fields = append(fields, zap.Error(domainErr.Cause))
			}
			if statusCode >= http.StatusInternalServerError {
				logger.Error("Domain error occurred", fields...)
			} else {
				logger.Warn("Domain error occurred", fields...)
			}

			response := dto.ErrorResponse{
				Error: domainErr.Message,
				Code:  string(domainErr.Code),
			}
			if len(domainErr.Context) > 0 {
				response.Details = domainErr.Context
			}
			return c.Status(statusCode).JSON(response)
		}

		// Handle fiber errors
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			logger.Warn("Fiber error occurred",
				zap.Int("code", fiberErr.Code),
				zap.String("message", fiberErr.Message),
			)
			return c.Status(fiberErr.Code).JSON(dto.ErrorResponse{
				Error: fiberErr.Message,
				Code:  "HTTP_ERROR",
			})
		}

		// Handle unknown errors
		logger.Error("Unknown error occurred",
			zap.String("path", c.Path()),
			zap.Error(err),
		)

		return c.Status(http.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Internal server error",
			Code:  string(domain.CodeInternal),
		})
	}
}

// mapDomainErrorToHTTPStatus maps domain errors to HTTP status codes
func mapDomainErrorToHTTPStatus(err *domain.DomainError) int {
	switch err.Code {
	case domain.CodeNotFound, domain.CodeDefinitionNotFound, domain.CodeDefinitionUnpublished:
		return http.StatusNotFound
	case domain.CodeInvalidInput, domain.CodeValidation, domain.CodeMissingField, domain.CodeInvalidFormat,
		domain.CodeOutOfRange, domain.CodeMalformedDefinition, domain.CodeInvalidOption:
		return http.StatusBadRequest
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeUnexpectedEvent, domain.CodeAdLocked, domain.CodeAnswerPending:
		return http.StatusConflict
	case domain.CodeSubmissionFailed, domain.CodeInjectedContentFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
