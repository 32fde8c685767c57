package engine

import (
	"context"

	"quiz-funnel/internal/domain"
)

// Loader fetches the definition a run is started against. The engine applies
// publication and structural checks itself, so loaders may return drafts.
type Loader interface {
	Load(ctx context.Context, slug string) (*domain.QuizDefinition, error)
}

type LoaderFunc func(ctx context.Context, slug string) (*domain.QuizDefinition, error)

func (f LoaderFunc) Load(ctx context.Context, slug string) (*domain.QuizDefinition, error) {
	return f(ctx, slug)
}

// StaticLoader serves definitions held in memory, keyed by slug.
type StaticLoader map[string]*domain.QuizDefinition

func Static(defs ...*domain.QuizDefinition) StaticLoader {
	l := make(StaticLoader, len(defs))
	for _, d := range defs {
		l[d.Slug] = d
	}
	return l
}

func (l StaticLoader) Load(_ context.Context, slug string) (*domain.QuizDefinition, error) {
	def, ok := l[slug]
	if !ok {
		return nil, domain.NewDefinitionNotFoundError(slug)
	}
	return def, nil
}
