package domain

import "context"

// QuizRepository defines the persistence port for quiz definitions.
type QuizRepository interface {
	// GetBySlug returns the quiz stored under (ownerID, slug), or nil when absent.
	GetBySlug(ctx context.Context, ownerID, slug string) (*QuizDefinition, error)

	// GetByID returns the quiz with the given id, or nil when absent.
	GetByID(ctx context.Context, id string) (*QuizDefinition, error)

	// ListPublished returns title/slug pairs of the owner's published quizzes.
	ListPublished(ctx context.Context, ownerID string) ([]QuizSummary, error)

	// Save inserts the quiz, or updates the row already stored under (ownerID, slug).
	Save(ctx context.Context, quiz *QuizDefinition) error
}

// ResponseRepository defines the persistence port for completed runs.
type ResponseRepository interface {
	Save(ctx context.Context, response *QuizResponse) error
	CountByQuiz(ctx context.Context, quizID string) (int, error)
}

// TransactionManager runs fn inside a transaction carried on the context.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
