package validation

import (
	"fmt"
	"regexp"
	"strings"

	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/dto"
)

const (
	MaxAnswers      = 100
	MaxAnswerLength = 5000
	MaxUserAgent    = 1024
	MaxSessionID    = 64
	MaxEmbedContent = 512 * 1024
)

var (
	validULID = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	validSlug = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateSlug validates a quiz slug path parameter
func (v *Validator) ValidateSlug(slug string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(slug) == "" {
		errors = append(errors, domain.NewMissingFieldError("slug"))
		return errors
	}
	if len(slug) > 255 || !validSlug.MatchString(slug) {
		errors = append(errors, domain.NewInvalidFormatError("slug", slug))
	}

	return errors
}

// ValidateSubmitRequest checks the bounds the JSON schema does not express.
func (v *Validator) ValidateSubmitRequest(req *dto.SubmitQuizResponseRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(req.QuizID) == "" {
		errors = append(errors, domain.NewMissingFieldError("quizId"))
	} else if !isValidULID(req.QuizID) {
		errors = append(errors, domain.NewInvalidFormatError("quizId", req.QuizID))
	}

	if strings.TrimSpace(req.SessionID) == "" {
		errors = append(errors, domain.NewMissingFieldError("sessionId"))
	} else if len(req.SessionID) > MaxSessionID {
		errors = append(errors, domain.NewOutOfRangeError("sessionId", len(req.SessionID), 1, MaxSessionID))
	}

	if len(req.UserAgent) > MaxUserAgent {
		errors = append(errors, domain.NewOutOfRangeError("userAgent", len(req.UserAgent), 0, MaxUserAgent))
	}

	if req.ResponseData == nil {
		errors = append(errors, domain.NewMissingFieldError("responseData"))
	} else if len(req.ResponseData) > MaxAnswers {
		errors = append(errors, domain.NewOutOfRangeError("responseData", len(req.ResponseData), 0, MaxAnswers))
	}
	for key, value := range req.ResponseData {
		if len(value) > MaxAnswerLength {
			errors = append(errors, domain.NewOutOfRangeError(fmt.Sprintf("responseData.%s", key), len(value), 0, MaxAnswerLength))
		}
	}

	return errors
}

// ValidateEmbedRequest validates shortcode render input
func (v *Validator) ValidateEmbedRequest(req *dto.EmbedRenderRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if len(req.Content) > MaxEmbedContent {
		errors = append(errors, domain.NewOutOfRangeError("content", len(req.Content), 0, MaxEmbedContent))
	}

	return errors
}

// Helper functions for validation

// isValidULID checks if the string is a valid ULID format
func isValidULID(s string) bool {
	return validULID.MatchString(s)
}
