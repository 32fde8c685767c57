package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// QuizStatus is the publication state of a quiz.
type QuizStatus string

const (
	StatusDraft     QuizStatus = "draft"
	StatusPublished QuizStatus = "published"
)

// SessionType tags the Session union.
type SessionType string

const (
	SessionQuestion SessionType = "question"
	SessionForm     SessionType = "form"
)

// Form field names double as answer keys.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldPhone   = "phone"
	FieldMessage = "message"
)

const (
	DefaultAdDisplayTime  = 5
	DefaultProcessingTime = 3
)

// QuizDefinition is the authored, immutable-during-a-run description of a quiz.
type QuizDefinition struct {
	ID          string          `json:"id,omitempty"`
	OwnerID     string          `json:"ownerId,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Slug        string          `json:"slug"`
	Sessions    []Session       `json:"sessions"`
	Settings    QuizSettings    `json:"settings"`
	Design      json.RawMessage `json:"design,omitempty"`
	Status      QuizStatus      `json:"status"`
	CreatedAt   time.Time       `json:"createdAt,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt,omitempty"`
}

// IsPublished reports whether the quiz may be served to respondents.
func (q *QuizDefinition) IsPublished() bool {
	return q.Status == StatusPublished
}

// Session is one step of a quiz: a question or a data-collection form.
type Session struct {
	ID            string      `json:"id"`
	Type          SessionType `json:"type"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	ShowAd        bool        `json:"showAd"`
	AdCode        string      `json:"adCode,omitempty"`
	AdDisplayTime *int        `json:"adDisplayTime,omitempty"`
	// DisplayTime is stored and surfaced to renderers but never enforced.
	DisplayTime *int        `json:"displayTime,omitempty"`
	Required    bool        `json:"required,omitempty"`
	Options     []string    `json:"options,omitempty"`
	FormFields  *FormFields `json:"formFields,omitempty"`
}

// HasOption reports whether option is one of the session's choices.
func (s *Session) HasOption(option string) bool {
	for _, o := range s.Options {
		if o == option {
			return true
		}
	}
	return false
}

// MissingFields lists the enabled form fields left blank in values. Only a
// required form session has missing fields.
func (s *Session) MissingFields(values map[string]string) []string {
	if s.Type != SessionForm || !s.Required {
		return nil
	}
	var missing []string
	for _, f := range s.FormFields.Enabled() {
		if strings.TrimSpace(values[f]) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// FormFields toggles the inputs collected by a form session.
type FormFields struct {
	Name    bool `json:"name"`
	Email   bool `json:"email"`
	Phone   bool `json:"phone"`
	Message bool `json:"message"`
}

// Enabled lists the enabled field names in display order.
func (f *FormFields) Enabled() []string {
	if f == nil {
		return nil
	}
	var fields []string
	if f.Name {
		fields = append(fields, FieldName)
	}
	if f.Email {
		fields = append(fields, FieldEmail)
	}
	if f.Phone {
		fields = append(fields, FieldPhone)
	}
	if f.Message {
		fields = append(fields, FieldMessage)
	}
	return fields
}

type QuizSettings struct {
	SaveResponses  bool             `json:"saveResponses"`
	Webhook        WebhookSettings  `json:"webhook"`
	Redirect       RedirectSettings `json:"redirect"`
	ShowFinalAd    bool             `json:"showFinalAd"`
	FinalAdCode    string           `json:"finalAdCode,omitempty"`
	AdDisplayTime  *int             `json:"adDisplayTime,omitempty"`
	TestAdEnabled  bool             `json:"testAdEnabled"`
	ProcessingTime *int             `json:"processingTime,omitempty"`
	CustomTexts    CustomTexts      `json:"customTexts"`
}

// RedirectTarget returns the redirect URL when redirection is active.
func (s *QuizSettings) RedirectTarget() (string, bool) {
	if !s.Redirect.Enabled || s.Redirect.URL == "" {
		return "", false
	}
	return s.Redirect.URL, true
}

type WebhookSettings struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
}

type RedirectSettings struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	// Delay is in seconds; nil falls back to the configured default.
	Delay *int `json:"delay,omitempty"`
}

type CustomTexts struct {
	Processing string `json:"processing,omitempty"`
	Result     string `json:"result,omitempty"`
	AdMessage  string `json:"adMessage,omitempty"`
}

// QuizSummary is the listing projection served to embedding hosts.
type QuizSummary struct {
	Title string `json:"title" db:"title"`
	Slug  string `json:"slug" db:"slug"`
}

// Seconds returns a pointer to n, for building definitions in code.
func Seconds(n int) *int {
	return &n
}

// Validate checks the structural soundness the engine depends on. Authoring
// rules such as the two-option minimum live in ValidateAuthoring.
func (q *QuizDefinition) Validate() error {
	if q == nil {
		return NewMalformedDefinitionError("quiz definition is nil", nil)
	}
	seen := make(map[string]struct{}, len(q.Sessions))
	for i := range q.Sessions {
		s := &q.Sessions[i]
		if s.ID == "" {
			return NewMalformedDefinitionError(fmt.Sprintf("session %d has no id", i), nil).
				WithContext("index", i)
		}
		if _, dup := seen[s.ID]; dup {
			return NewMalformedDefinitionError(fmt.Sprintf("duplicate session id %q", s.ID), nil).
				WithContext("sessionId", s.ID)
		}
		seen[s.ID] = struct{}{}

		switch s.Type {
		case SessionQuestion:
			if len(s.Options) == 0 {
				return NewMalformedDefinitionError(fmt.Sprintf("question session %q has no options", s.ID), nil).
					WithContext("sessionId", s.ID)
			}
		case SessionForm:
			if len(s.FormFields.Enabled()) == 0 {
				return NewMalformedDefinitionError(fmt.Sprintf("form session %q has no enabled fields", s.ID), nil).
					WithContext("sessionId", s.ID)
			}
		default:
			return NewMalformedDefinitionError(fmt.Sprintf("session %q has unknown type %q", s.ID, s.Type), nil).
				WithContext("sessionId", s.ID)
		}
		if s.AdDisplayTime != nil && *s.AdDisplayTime < 0 {
			return NewMalformedDefinitionError(fmt.Sprintf("session %q has a negative adDisplayTime", s.ID), nil).
				WithContext("sessionId", s.ID)
		}
	}
	if q.Settings.AdDisplayTime != nil && *q.Settings.AdDisplayTime < 0 {
		return NewMalformedDefinitionError("settings.adDisplayTime is negative", nil)
	}
	if q.Settings.ProcessingTime != nil && *q.Settings.ProcessingTime < 0 {
		return NewMalformedDefinitionError("settings.processingTime is negative", nil)
	}
	if q.Settings.Redirect.Delay != nil && *q.Settings.Redirect.Delay < 0 {
		return NewMalformedDefinitionError("settings.redirect.delay is negative", nil)
	}
	return nil
}

// ValidateAuthoring applies the editor rules enforced before a quiz is stored.
func (q *QuizDefinition) ValidateAuthoring() error {
	if err := q.Validate(); err != nil {
		return err
	}
	var errs ValidationErrors
	if q.Title == "" {
		errs = append(errs, NewMissingFieldError("title"))
	}
	if q.Slug == "" {
		errs = append(errs, NewMissingFieldError("slug"))
	} else if !slugPattern.MatchString(q.Slug) {
		errs = append(errs, NewInvalidFormatError("slug", q.Slug))
	}
	switch q.Status {
	case StatusDraft, StatusPublished:
	default:
		errs = append(errs, NewInvalidFormatError("status", q.Status))
	}
	for i, s := range q.Sessions {
		if s.Type == SessionQuestion && len(s.Options) < 2 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("sessions[%d].options", i),
				Code:    CodeOutOfRange,
				Message: "a question needs at least 2 options",
				Value:   len(s.Options),
			})
		}
	}
	if q.Settings.Webhook.Enabled && q.Settings.Webhook.URL == "" {
		errs = append(errs, NewMissingFieldError("settings.webhook.url"))
	}
	if q.Settings.Redirect.Enabled && q.Settings.Redirect.URL == "" {
		errs = append(errs, NewMissingFieldError("settings.redirect.url"))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
