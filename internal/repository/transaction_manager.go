package repository

import (
	"context"
	"fmt"

	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/logger"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type txKey struct{}

func txFromContext(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx, ok
}

// GetExecutor returns the transaction carried by ctx, or db when there is none.
func GetExecutor(ctx context.Context, db DBTX) DBTX {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return db
}

// TransactionManagerAdapter implements domain.TransactionManager on *sqlx.DB.
type TransactionManagerAdapter struct {
	db *sqlx.DB
}

func NewTransactionManagerAdapter(db *sqlx.DB) domain.TransactionManager {
	return &TransactionManagerAdapter{db: db}
}

// WithTransaction runs fn with a transaction on its context and commits when fn
// returns nil. Calls nested inside fn join the outer transaction.
func (m *TransactionManagerAdapter) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	done := false
	defer func() {
		p := recover()
		if done {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Get().Error("failed to rollback transaction", zap.Error(rbErr), zap.NamedError("cause", err))
			if p == nil {
				err = fmt.Errorf("failed to rollback transaction: %v (original error: %w)", rbErr, err)
			}
		}
		if p != nil {
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	done = true
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
