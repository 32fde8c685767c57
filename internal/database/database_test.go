package database

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestMigrate_SQLite(t *testing.T) {
	db := openMemory(t)

	require.NoError(t, Migrate(db))
	// a second run finds nothing to apply
	require.NoError(t, Migrate(db))

	var tables []string
	require.NoError(t, db.Select(&tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('quizzes', 'quiz_responses') ORDER BY name`))
	assert.Equal(t, []string{"quiz_responses", "quizzes"}, tables)
}

func TestUpMigrations_OracleSorted(t *testing.T) {
	names, err := upMigrations(migrationFS, "migrations/oracle")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"000001_create_quizzes.up.sql",
		"000002_create_quiz_responses.up.sql",
	}, names)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (id INT);\n\n CREATE INDEX i ON a (id)\n;  ")
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE INDEX i ON a (id)"}, stmts)
}

func TestDialectDir(t *testing.T) {
	assert.Equal(t, "postgres", dialectDir(DriverPostgres))
	assert.Equal(t, "sqlite3", dialectDir(DriverSQLite))
	assert.Equal(t, "oracle", dialectDir(DriverOracle))
}
