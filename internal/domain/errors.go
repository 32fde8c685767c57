package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Validation errors
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Quiz specific errors
	CodeDefinitionNotFound    ErrorCode = "DEFINITION_NOT_FOUND"
	CodeDefinitionUnpublished ErrorCode = "DEFINITION_UNPUBLISHED"
	CodeMalformedDefinition   ErrorCode = "MALFORMED_DEFINITION"
	CodeSubmissionFailed      ErrorCode = "SUBMISSION_FAILED"
	CodeInjectedContentFailed ErrorCode = "INJECTED_CONTENT_FAILED"
	CodeUnexpectedEvent       ErrorCode = "UNEXPECTED_EVENT"
	CodeAdLocked              ErrorCode = "AD_LOCKED"
	CodeAnswerPending         ErrorCode = "ANSWER_PENDING"
	CodeInvalidOption         ErrorCode = "INVALID_OPTION"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError carrying the same code, so callers can compare against sentinels.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Context map[string]interface{} `json:"context,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Context: e.Context,
	})
}

// WithContext attaches a key/value pair that is reported to API callers as details.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Sentinels for errors.Is comparisons.
var (
	ErrDefinitionNotFound    = NewError(CodeDefinitionNotFound, "quiz definition not found", nil)
	ErrDefinitionUnpublished = NewError(CodeDefinitionUnpublished, "quiz definition is not published", nil)
	ErrMalformedDefinition   = NewError(CodeMalformedDefinition, "quiz definition is malformed", nil)
	ErrSubmissionFailed      = NewError(CodeSubmissionFailed, "response submission failed", nil)
	ErrUnauthorized          = NewError(CodeUnauthorized, "unauthorized", nil)
)

func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(CodeUnauthorized, message, nil)
}

func NewDefinitionNotFoundError(slug string) *DomainError {
	return NewError(CodeDefinitionNotFound, fmt.Sprintf("Quiz not found with slug: %s", slug), nil).
		WithContext("slug", slug)
}

func NewDefinitionUnpublishedError(slug string) *DomainError {
	return NewError(CodeDefinitionUnpublished, fmt.Sprintf("Quiz %s is not published", slug), nil).
		WithContext("slug", slug)
}

func NewMalformedDefinitionError(message string, cause error) *DomainError {
	return NewError(CodeMalformedDefinition, message, cause)
}

func NewSubmissionError(message string, cause error) *DomainError {
	return NewError(CodeSubmissionFailed, message, cause)
}

// ValidationError describes a single invalid request field.
type ValidationError struct {
	Field   string      `json:"field"`
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects field errors; the error handler renders them as a 400 response.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	if len(v) == 1 {
		return v[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", v[0].Error(), len(v)-1)
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Code: CodeMissingField, Message: "field is required"}
}

func NewInvalidFormatError(field string, value interface{}) ValidationError {
	return ValidationError{Field: field, Code: CodeInvalidFormat, Message: "field has an invalid format", Value: value}
}

func NewOutOfRangeError(field string, value interface{}, min, max int) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    CodeOutOfRange,
		Message: fmt.Sprintf("value must be between %d and %d", min, max),
		Value:   value,
	}
}
