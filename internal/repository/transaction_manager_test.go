package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionManager_Commit(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManagerAdapter(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM quizzes`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tm.WithTransaction(context.Background(), func(ctx context.Context) error {
		exec := GetExecutor(ctx, db)
		_, isTx := exec.(*sqlx.Tx)
		assert.True(t, isTx)
		_, err := exec.ExecContext(ctx, `DELETE FROM quizzes`)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_RollbackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManagerAdapter(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := tm.WithTransaction(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_RollbackOnPanic(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManagerAdapter(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = tm.WithTransaction(context.Background(), func(ctx context.Context) error {
			panic("kaput")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_NestedJoinsOuter(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManagerAdapter(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := tm.WithTransaction(context.Background(), func(outer context.Context) error {
		return tm.WithTransaction(outer, func(inner context.Context) error {
			assert.Same(t, GetExecutor(outer, db), GetExecutor(inner, db))
			return nil
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetExecutor_NoTransaction(t *testing.T) {
	db, _ := newMockDB(t)
	assert.Same(t, db, GetExecutor(context.Background(), db))
}
