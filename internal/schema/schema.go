// Package schema validates wire payloads against embedded JSON schemas before
// they are decoded into domain types.
package schema

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"quiz-funnel/internal/domain"

	"github.com/xeipuuv/gojsonschema"
)

var (
	//go:embed quiz_definition.json
	quizDefinitionSchema []byte

	//go:embed submit_request.json
	submitRequestSchema []byte
)

var (
	loadOnce       sync.Once
	definitionSch  *gojsonschema.Schema
	submissionSch  *gojsonschema.Schema
	errLoadSchemas error
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type slugChecker struct{}

func (slugChecker) IsFormat(input interface{}) bool {
	s, ok := input.(string)
	if !ok {
		return true
	}
	return slugPattern.MatchString(s)
}

func load() error {
	loadOnce.Do(func() {
		gojsonschema.FormatCheckers.Add("slug", slugChecker{})

		definitionSch, errLoadSchemas = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(quizDefinitionSchema))
		if errLoadSchemas != nil {
			errLoadSchemas = fmt.Errorf("compile quiz definition schema: %w", errLoadSchemas)
			return
		}
		submissionSch, errLoadSchemas = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(submitRequestSchema))
		if errLoadSchemas != nil {
			errLoadSchemas = fmt.Errorf("compile submit request schema: %w", errLoadSchemas)
		}
	})
	return errLoadSchemas
}

// ValidateDefinition checks a raw QuizDefinition document. Violations are
// reported as a MALFORMED_DEFINITION error whose context lists every problem.
func ValidateDefinition(raw []byte) error {
	if err := load(); err != nil {
		return domain.NewInternalError("schema unavailable", err)
	}
	result, err := definitionSch.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return domain.NewMalformedDefinitionError("quiz definition is not valid JSON", err)
	}
	if result.Valid() {
		return nil
	}
	problems := describe(result.Errors())
	return domain.NewMalformedDefinitionError("quiz definition failed schema validation: "+strings.Join(problems, "; "), nil).
		WithContext("problems", problems)
}

// ValidateSubmission checks a raw submit-quiz-response body and returns
// domain.ValidationErrors on violation.
func ValidateSubmission(raw []byte) error {
	if err := load(); err != nil {
		return domain.NewInternalError("schema unavailable", err)
	}
	result, err := submissionSch.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return domain.NewInvalidInputError("request body is not valid JSON")
	}
	if result.Valid() {
		return nil
	}
	var errs domain.ValidationErrors
	for _, re := range result.Errors() {
		errs = append(errs, toValidationError(re))
	}
	return errs
}

func toValidationError(re gojsonschema.ResultError) domain.ValidationError {
	field := re.Field()
	code := domain.CodeInvalidFormat
	if re.Type() == "required" {
		if prop, ok := re.Details()["property"].(string); ok {
			if field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
				field = prop
			} else {
				field = field + "." + prop
			}
		}
		code = domain.CodeMissingField
	}
	return domain.ValidationError{
		Field:   field,
		Code:    code,
		Message: re.Description(),
	}
}

func describe(errs []gojsonschema.ResultError) []string {
	out := make([]string, 0, len(errs))
	for _, re := range errs {
		out = append(out, re.String())
	}
	return out
}
