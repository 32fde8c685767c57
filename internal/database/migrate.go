package database

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"quiz-funnel/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationFS embed.FS

// NewMigrator builds a golang-migrate instance over db. Oracle is not
// supported by golang-migrate and goes through Migrate instead.
//
// Closing the returned instance also closes db.
func NewMigrator(db *sqlx.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFS, path.Join("migrations", dialectDir(db.DriverName())))
	if err != nil {
		return nil, fmt.Errorf("could not load migrations: %w", err)
	}

	switch db.DriverName() {
	case DriverPostgres:
		drv, err := migratepgx.WithInstance(db.DB, &migratepgx.Config{})
		if err != nil {
			return nil, fmt.Errorf("could not create pgx migration driver: %w", err)
		}
		return migrate.NewWithInstance("iofs", src, "pgx", drv)
	case DriverSQLite:
		drv, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
		if err != nil {
			return nil, fmt.Errorf("could not create sqlite3 migration driver: %w", err)
		}
		return migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	default:
		return nil, fmt.Errorf("no migrator for driver %q", db.DriverName())
	}
}

// Migrate applies every pending up migration for the connection's driver.
func Migrate(db *sqlx.DB) error {
	if db.DriverName() == DriverOracle {
		return runOracleMigrations(db)
	}

	m, err := NewMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Get().Info("Migrations completed successfully",
		zap.String("driver", db.DriverName()),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

func dialectDir(driver string) string {
	if driver == DriverPostgres {
		return "postgres"
	}
	return driver
}

const oracleVersionTable = "schema_migrations"

// runOracleMigrations executes the embedded .up.sql files in name order,
// recording each applied file so reruns are no-ops.
func runOracleMigrations(db *sqlx.DB) error {
	var exists int
	if err := db.Get(&exists, `SELECT COUNT(*) FROM user_tables WHERE table_name = UPPER(:1)`, oracleVersionTable); err != nil {
		return fmt.Errorf("could not inspect migration table: %w", err)
	}
	if exists == 0 {
		if _, err := db.Exec(`CREATE TABLE ` + oracleVersionTable + ` (name VARCHAR2(255) PRIMARY KEY)`); err != nil {
			return fmt.Errorf("could not create migration table: %w", err)
		}
	}

	var applied []string
	if err := db.Select(&applied, `SELECT name FROM `+oracleVersionTable); err != nil {
		return fmt.Errorf("could not read applied migrations: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, name := range applied {
		done[name] = true
	}

	files, err := upMigrations(migrationFS, "migrations/oracle")
	if err != nil {
		return err
	}
	for _, name := range files {
		if done[name] {
			continue
		}
		content, err := fs.ReadFile(migrationFS, path.Join("migrations/oracle", name))
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", name, err)
		}
		for _, stmt := range splitStatements(string(content)) {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("could not execute migration %s: %w", name, err)
			}
		}
		if _, err := db.Exec(`INSERT INTO `+oracleVersionTable+` (name) VALUES (:1)`, name); err != nil {
			return fmt.Errorf("could not record migration %s: %w", name, err)
		}
		logger.Get().Info("Executed migration", zap.String("file", name))
	}

	logger.Get().Info("Migrations completed successfully", zap.String("driver", DriverOracle))
	return nil
}

func upMigrations(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("could not read migrations directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// splitStatements breaks a script on semicolons; go-ora runs one statement per call.
func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		if s := strings.TrimSpace(part); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
