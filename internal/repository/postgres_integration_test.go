//go:build integration

package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"quiz-funnel/internal/database"
	"quiz-funnel/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
}

func TestPostgres_SaveAndServe(t *testing.T) {
	ctx := context.Background()
	dsn := startPostgres(t, ctx)

	db, err := database.Open(ctx, database.DriverPostgres, dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(db))

	repo := NewQuizDatabaseAdapter(db)
	tm := NewTransactionManagerAdapter(db)

	quiz := sampleDefinition()
	require.NoError(t, tm.WithTransaction(ctx, func(ctx context.Context) error {
		return repo.Save(ctx, quiz)
	}))

	got, err := repo.GetBySlug(ctx, "owner-1", "lead-quiz")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, quiz.Sessions, got.Sessions)

	list, err := repo.ListPublished(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.QuizSummary{{Title: "Lead quiz", Slug: "lead-quiz"}}, list)

	responses := NewResponseDatabaseAdapter(db)
	require.NoError(t, responses.Save(ctx, &domain.QuizResponse{
		QuizID:       quiz.ID,
		SessionID:    "run-1",
		ResponseData: domain.AnswerSet{"q1": "a"},
	}))
	n, err := responses.CountByQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
