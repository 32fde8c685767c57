package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/repository/models"
	"quiz-funnel/internal/util"
)

// ResponseDatabaseAdapter implements domain.ResponseRepository using sqlx
type ResponseDatabaseAdapter struct {
	db DBTX
}

func NewResponseDatabaseAdapter(db DBTX) domain.ResponseRepository {
	return &ResponseDatabaseAdapter{db: db}
}

// Save implements domain.ResponseRepository
func (a *ResponseDatabaseAdapter) Save(ctx context.Context, response *domain.QuizResponse) error {
	if response == nil {
		return fmt.Errorf("cannot save nil response")
	}
	data := response.ResponseData
	if data == nil {
		data = domain.AnswerSet{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal response data: %w", err)
	}

	row := models.QuizResponse{
		ID:           response.ID,
		QuizID:       response.QuizID,
		SessionID:    response.SessionID,
		UserAgent:    util.StringToNullString(response.UserAgent),
		ResponseData: raw,
		CreatedAt:    response.CreatedAt,
	}
	if row.ID == "" {
		row.ID = util.NewULID()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	exec := GetExecutor(ctx, a.db)
	query := exec.Rebind(`INSERT INTO quiz_responses (
		id, quiz_id, session_id, user_agent, response_data, created_at
	) VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := exec.ExecContext(ctx, query,
		row.ID, row.QuizID, row.SessionID, row.UserAgent, row.ResponseData, row.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to save quiz response: %w", err)
	}

	response.ID = row.ID
	response.CreatedAt = row.CreatedAt
	return nil
}

// CountByQuiz implements domain.ResponseRepository
func (a *ResponseDatabaseAdapter) CountByQuiz(ctx context.Context, quizID string) (int, error) {
	exec := GetExecutor(ctx, a.db)
	var count int
	if err := exec.GetContext(ctx, &count,
		exec.Rebind(`SELECT COUNT(*) "count" FROM quiz_responses WHERE quiz_id = ?`), quizID); err != nil {
		return 0, fmt.Errorf("failed to count responses for quiz %s: %w", quizID, err)
	}
	return count, nil
}
