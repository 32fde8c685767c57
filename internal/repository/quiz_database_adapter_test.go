package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"quiz-funnel/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var quizRowColumns = []string{
	"id", "owner_id", "slug", "title", "description", "status",
	"sessions", "settings", "design", "created_at", "updated_at",
}

func TestQuizDatabaseAdapter_GetBySlug(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM quizzes
	WHERE owner_id = ? AND slug = ?`)).
		WithArgs("owner-1", "lead-quiz").
		WillReturnRows(sqlmock.NewRows(quizRowColumns).AddRow(
			"01HQUIZ", "owner-1", "lead-quiz", "Lead quiz", "desc", "published",
			[]byte(`[{"id":"q1","type":"question","title":"Pick","showAd":true,"adDisplayTime":2,"options":["a","b"]}]`),
			[]byte(`{"saveResponses":true,"redirect":{"enabled":true,"url":"https://example.com"}}`),
			nil, now, now,
		))

	quiz, err := adapter.GetBySlug(context.Background(), "owner-1", "lead-quiz")
	require.NoError(t, err)
	require.NotNil(t, quiz)
	assert.Equal(t, "01HQUIZ", quiz.ID)
	assert.Equal(t, "desc", quiz.Description)
	assert.True(t, quiz.IsPublished())
	require.Len(t, quiz.Sessions, 1)
	require.NotNil(t, quiz.Sessions[0].AdDisplayTime)
	assert.Equal(t, 2, *quiz.Sessions[0].AdDisplayTime)
	assert.Equal(t, []string{"a", "b"}, quiz.Sessions[0].Options)
	url, ok := quiz.Settings.RedirectTarget()
	assert.True(t, ok)
	assert.Equal(t, "https://example.com", url)
	assert.Nil(t, quiz.Design)
	assert.Equal(t, now, quiz.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizDatabaseAdapter_GetBySlug_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM quizzes`)).
		WithArgs("owner-1", "missing").
		WillReturnRows(sqlmock.NewRows(quizRowColumns))

	quiz, err := adapter.GetBySlug(context.Background(), "owner-1", "missing")
	require.NoError(t, err)
	assert.Nil(t, quiz)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizDatabaseAdapter_GetByID_CorruptSessions(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = ?`)).
		WithArgs("01HQUIZ").
		WillReturnRows(sqlmock.NewRows(quizRowColumns).AddRow(
			"01HQUIZ", "owner-1", "broken", "Broken", nil, "published",
			[]byte(`{not json`), []byte(`{}`), nil, now, now,
		))

	quiz, err := adapter.GetByID(context.Background(), "01HQUIZ")
	assert.Nil(t, quiz)
	assert.ErrorIs(t, err, domain.ErrMalformedDefinition)
}

func TestQuizDatabaseAdapter_GetByID_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)
	dbErr := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = ?`)).
		WithArgs("01HQUIZ").
		WillReturnError(dbErr)

	_, err := adapter.GetByID(context.Background(), "01HQUIZ")
	assert.ErrorIs(t, err, dbErr)
}

func TestQuizDatabaseAdapter_ListPublished(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE owner_id = ? AND status = ?`)).
		WithArgs("owner-1", "published").
		WillReturnRows(sqlmock.NewRows([]string{"title", "slug"}).
			AddRow("Alpha", "alpha").
			AddRow("Beta", "beta"))

	list, err := adapter.ListPublished(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.QuizSummary{
		{Title: "Alpha", Slug: "alpha"},
		{Title: "Beta", Slug: "beta"},
	}, list)
}

func TestQuizDatabaseAdapter_ListPublished_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM quizzes`)).
		WillReturnRows(sqlmock.NewRows([]string{"title", "slug"}))

	list, err := adapter.ListPublished(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func sampleDefinition() *domain.QuizDefinition {
	return &domain.QuizDefinition{
		OwnerID: "owner-1",
		Title:   "Lead quiz",
		Slug:    "lead-quiz",
		Status:  domain.StatusPublished,
		Sessions: []domain.Session{
			{ID: "q1", Type: domain.SessionQuestion, Title: "Pick", Options: []string{"a", "b"}},
			{ID: "f1", Type: domain.SessionForm, Title: "Contact", FormFields: &domain.FormFields{Email: true}},
		},
		Settings: domain.QuizSettings{SaveResponses: true},
	}
}

func TestQuizDatabaseAdapter_Save_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id "id", created_at "created_at" FROM quizzes`)).
		WithArgs("owner-1", "lead-quiz").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO quizzes`)).
		WithArgs(sqlmock.AnyArg(), "owner-1", "lead-quiz", "Lead quiz", sqlmock.AnyArg(), "published",
			sqlmock.AnyArg(), sqlmock.AnyArg(), nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	quiz := sampleDefinition()
	require.NoError(t, adapter.Save(context.Background(), quiz))
	assert.Len(t, quiz.ID, 26)
	assert.False(t, quiz.CreatedAt.IsZero())
	assert.Equal(t, quiz.CreatedAt, quiz.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizDatabaseAdapter_Save_UpdateKeepsIdentity(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id "id", created_at "created_at" FROM quizzes`)).
		WithArgs("owner-1", "lead-quiz").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("01HEXISTING", created))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE quizzes SET`)).
		WithArgs("Lead quiz", sqlmock.AnyArg(), "published", sqlmock.AnyArg(), sqlmock.AnyArg(), nil,
			sqlmock.AnyArg(), "01HEXISTING").
		WillReturnResult(sqlmock.NewResult(0, 1))

	quiz := sampleDefinition()
	quiz.ID = "ignored-client-id"
	require.NoError(t, adapter.Save(context.Background(), quiz))
	assert.Equal(t, "01HEXISTING", quiz.ID)
	assert.Equal(t, created, quiz.CreatedAt)
	assert.True(t, quiz.UpdatedAt.After(created))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizDatabaseAdapter_Save_Nil(t *testing.T) {
	db, _ := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)
	assert.Error(t, adapter.Save(context.Background(), nil))
}

func TestResponseDatabaseAdapter_Save(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewResponseDatabaseAdapter(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO quiz_responses`)).
		WithArgs(sqlmock.AnyArg(), "01HQUIZ", "run-1", "agent/1.0", `{"email":"a@b.c","q1":"a"}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	resp := &domain.QuizResponse{
		QuizID:       "01HQUIZ",
		SessionID:    "run-1",
		UserAgent:    "agent/1.0",
		ResponseData: domain.AnswerSet{"q1": "a", "email": "a@b.c"},
	}
	require.NoError(t, adapter.Save(context.Background(), resp))
	assert.NotEmpty(t, resp.ID)
	assert.False(t, resp.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseDatabaseAdapter_Save_EmptyUserAgentIsNull(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewResponseDatabaseAdapter(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO quiz_responses`)).
		WithArgs(sqlmock.AnyArg(), "01HQUIZ", "run-1", nil, `{}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, adapter.Save(context.Background(), &domain.QuizResponse{QuizID: "01HQUIZ", SessionID: "run-1"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseDatabaseAdapter_CountByQuiz(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewResponseDatabaseAdapter(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) "count" FROM quiz_responses WHERE quiz_id = ?`)).
		WithArgs("01HQUIZ").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := adapter.CountByQuiz(context.Background(), "01HQUIZ")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
