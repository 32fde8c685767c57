package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx, so an adapter runs the
// same queries inside or outside a transaction.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}
