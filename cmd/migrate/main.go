package main

import (
	"errors"
	"fmt"
	"os"

	"quiz-funnel/internal/config"
	"quiz-funnel/internal/database"
	"quiz-funnel/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var db *sqlx.DB

	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the quiz-funnel database schema",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := logger.Initialize(cfg.Logger); err != nil {
				return err
			}
			db, err = database.Open(cmd.Context(), cfg.DB.Driver, cfg.GetDSN())
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if db != nil {
				_ = db.Close()
			}
			_ = logger.Sync()
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return database.Migrate(db)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (postgres and sqlite3 only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(db, func(m *migrate.Migrate) error {
				if steps > 0 {
					return m.Steps(-steps)
				}
				return m.Down()
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back; 0 rolls back everything")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(db, func(m *migrate.Migrate) error {
				version, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	})
	return cmd
}

func withMigrator(db *sqlx.DB, fn func(*migrate.Migrate) error) error {
	if db.DriverName() == database.DriverOracle {
		return errors.New("oracle schemas only support up")
	}
	m, err := database.NewMigrator(db)
	if err != nil {
		return err
	}
	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Get().Error("Migration failed", zap.Error(err))
		return err
	}
	return nil
}
