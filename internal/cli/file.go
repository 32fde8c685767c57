package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/schema"

	"gopkg.in/yaml.v3"
)

// ReadDefinition decodes a quiz definition from a .yaml, .yml or .json
// document and checks it against the definition schema.
func ReadDefinition(path string) (*domain.QuizDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseDefinition(raw, filepath.Ext(path))
}

// ParseDefinition decodes raw as YAML when ext names a YAML file and as
// JSON otherwise.
func ParseDefinition(raw []byte, ext string) (*domain.QuizDefinition, error) {
	doc := raw
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var v interface{}
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return nil, domain.NewMalformedDefinitionError("quiz definition is not valid YAML", err)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, domain.NewMalformedDefinitionError("quiz definition cannot be represented as JSON", err)
		}
		doc = b
	}

	if err := schema.ValidateDefinition(doc); err != nil {
		return nil, err
	}
	var def domain.QuizDefinition
	if err := json.Unmarshal(doc, &def); err != nil {
		return nil, domain.NewMalformedDefinitionError("quiz definition does not match the data model", err)
	}
	return &def, nil
}

// fileLoader serves the single definition read from a local file.
type fileLoader struct {
	def *domain.QuizDefinition
}

func (l fileLoader) Load(_ context.Context, slug string) (*domain.QuizDefinition, error) {
	if slug != l.def.Slug {
		return nil, domain.NewDefinitionNotFoundError(slug)
	}
	return l.def, nil
}
