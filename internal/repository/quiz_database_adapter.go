package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/repository/models"
	"quiz-funnel/internal/util"
)

const quizColumns = `
		id "id",
		owner_id "owner_id",
		slug "slug",
		title "title",
		description "description",
		status "status",
		sessions "sessions",
		settings "settings",
		design "design",
		created_at "created_at",
		updated_at "updated_at"`

// QuizDatabaseAdapter implements domain.QuizRepository using sqlx
type QuizDatabaseAdapter struct {
	db DBTX
}

// NewQuizDatabaseAdapter creates a new instance of QuizDatabaseAdapter
func NewQuizDatabaseAdapter(db DBTX) domain.QuizRepository {
	return &QuizDatabaseAdapter{db: db}
}

// GetBySlug implements domain.QuizRepository
func (a *QuizDatabaseAdapter) GetBySlug(ctx context.Context, ownerID, slug string) (*domain.QuizDefinition, error) {
	exec := GetExecutor(ctx, a.db)
	query := exec.Rebind(`SELECT` + quizColumns + `
	FROM quizzes
	WHERE owner_id = ? AND slug = ?`)

	var row models.Quiz
	if err := exec.GetContext(ctx, &row, query, ownerID, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by slug %s: %w", slug, err)
	}
	return toDomainQuiz(&row)
}

// GetByID implements domain.QuizRepository
func (a *QuizDatabaseAdapter) GetByID(ctx context.Context, id string) (*domain.QuizDefinition, error) {
	exec := GetExecutor(ctx, a.db)
	query := exec.Rebind(`SELECT` + quizColumns + `
	FROM quizzes
	WHERE id = ?`)

	var row models.Quiz
	if err := exec.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by ID %s: %w", id, err)
	}
	return toDomainQuiz(&row)
}

// ListPublished implements domain.QuizRepository
func (a *QuizDatabaseAdapter) ListPublished(ctx context.Context, ownerID string) ([]domain.QuizSummary, error) {
	exec := GetExecutor(ctx, a.db)
	query := exec.Rebind(`SELECT
		title "title",
		slug "slug"
	FROM quizzes
	WHERE owner_id = ? AND status = ?
	ORDER BY title, slug`)

	summaries := []domain.QuizSummary{}
	if err := exec.SelectContext(ctx, &summaries, query, ownerID, string(domain.StatusPublished)); err != nil {
		return nil, fmt.Errorf("failed to list published quizzes: %w", err)
	}
	return summaries, nil
}

// Save implements domain.QuizRepository. Callers wanting the lookup and the
// write to be atomic run it inside TransactionManager.WithTransaction.
func (a *QuizDatabaseAdapter) Save(ctx context.Context, quiz *domain.QuizDefinition) error {
	if quiz == nil {
		return fmt.Errorf("cannot save nil quiz")
	}
	row, err := toModelQuiz(quiz)
	if err != nil {
		return err
	}

	exec := GetExecutor(ctx, a.db)
	var existing struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err = exec.GetContext(ctx, &existing,
		exec.Rebind(`SELECT id "id", created_at "created_at" FROM quizzes WHERE owner_id = ? AND slug = ?`),
		row.OwnerID, row.Slug)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to look up quiz %s: %w", row.Slug, err)
	}

	now := time.Now().UTC()
	row.UpdatedAt = now

	if err == nil {
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		query := exec.Rebind(`UPDATE quizzes SET
			title = ?,
			description = ?,
			status = ?,
			sessions = ?,
			settings = ?,
			design = ?,
			updated_at = ?
		WHERE id = ?`)
		if _, err := exec.ExecContext(ctx, query,
			row.Title, row.Description, row.Status, row.Sessions, row.Settings, row.Design,
			row.UpdatedAt, row.ID,
		); err != nil {
			return fmt.Errorf("failed to update quiz %s: %w", row.ID, err)
		}
	} else {
		if row.ID == "" {
			row.ID = util.NewULID()
		}
		row.CreatedAt = now
		query := exec.Rebind(`INSERT INTO quizzes (
			id, owner_id, slug, title, description, status,
			sessions, settings, design, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if _, err := exec.ExecContext(ctx, query,
			row.ID, row.OwnerID, row.Slug, row.Title, row.Description, row.Status,
			row.Sessions, row.Settings, row.Design, row.CreatedAt, row.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to save quiz: %w", err)
		}
	}

	quiz.ID = row.ID
	quiz.CreatedAt = row.CreatedAt
	quiz.UpdatedAt = row.UpdatedAt
	return nil
}

func toModelQuiz(q *domain.QuizDefinition) (*models.Quiz, error) {
	sessions := q.Sessions
	if sessions == nil {
		sessions = []domain.Session{}
	}
	sessionsJSON, err := json.Marshal(sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sessions: %w", err)
	}
	settingsJSON, err := json.Marshal(q.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	status := q.Status
	if status == "" {
		status = domain.StatusDraft
	}
	return &models.Quiz{
		ID:          q.ID,
		OwnerID:     q.OwnerID,
		Slug:        q.Slug,
		Title:       q.Title,
		Description: sql.NullString{String: q.Description, Valid: true},
		Status:      string(status),
		Sessions:    sessionsJSON,
		Settings:    settingsJSON,
		Design:      models.JSONText(q.Design),
	}, nil
}

func toDomainQuiz(row *models.Quiz) (*domain.QuizDefinition, error) {
	q := &domain.QuizDefinition{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Slug:        row.Slug,
		Title:       row.Title,
		Description: util.NullStringToString(row.Description),
		Status:      domain.QuizStatus(row.Status),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if len(row.Sessions) > 0 {
		if err := json.Unmarshal(row.Sessions, &q.Sessions); err != nil {
			return nil, domain.NewMalformedDefinitionError("stored sessions are not valid JSON", err).
				WithContext("quizId", row.ID)
		}
	}
	if len(row.Settings) > 0 {
		if err := json.Unmarshal(row.Settings, &q.Settings); err != nil {
			return nil, domain.NewMalformedDefinitionError("stored settings are not valid JSON", err).
				WithContext("quizId", row.ID)
		}
	}
	if len(row.Design) > 0 {
		q.Design = json.RawMessage(row.Design)
	}
	return q, nil
}
