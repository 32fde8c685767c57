package database

import (
	"context"
	"fmt"
	"time"

	"quiz-funnel/internal/logger"

	_ "github.com/jackc/pgx/v4/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
	_ "github.com/sijms/go-ora/v2" // registers "oracle"
	"go.uber.org/zap"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
	DriverOracle   = "oracle"
)

func init() {
	// go-ora accepts :name placeholders; sqlx does not know the driver name.
	sqlx.BindDriver(DriverOracle, sqlx.NAMED)
}

// Open connects to the given driver and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite, DriverOracle:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// in-memory databases are per connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	logger.Get().Info("Connected to database", zap.String("driver", driver))
	return db, nil
}
