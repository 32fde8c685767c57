package cli

import (
	"context"
	"fmt"
	"io"

	"quiz-funnel/internal/adapter"
	"quiz-funnel/internal/cache"
	"quiz-funnel/internal/database"
	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/logger"
	"quiz-funnel/internal/repository"
	"quiz-funnel/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var (
		owner   string
		publish bool
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "seed <file>...",
		Short: "Validate quiz definition files and store them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			// Every file is decoded before the database is touched.
			defs := make([]*domain.QuizDefinition, 0, len(args))
			for _, path := range args {
				def, err := ReadDefinition(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				defs = append(defs, def)
			}

			db, err := database.Open(ctx, cfg.DB.Driver, cfg.GetDSN())
			if err != nil {
				return err
			}
			defer db.Close()
			if migrate {
				if err := database.Migrate(db); err != nil {
					return err
				}
			}

			var quizCache domain.Cache
			if cfg.Redis.Address != "" {
				client, err := cache.NewRedisClient(ctx, cfg.Redis)
				if err != nil {
					logger.Get().Warn("Cache unavailable; cached definitions expire on their TTL", zap.Error(err))
				} else {
					defer client.Close()
					quizCache = adapter.NewRedisCacheAdapter(client)
				}
			}

			svc := service.NewQuizService(
				repository.NewQuizDatabaseAdapter(db),
				repository.NewTransactionManagerAdapter(db),
				quizCache,
				cfg.Cache.QuizTTL,
			)
			return seedDefinitions(ctx, svc, defs, owner, publish, opts.out)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner namespace applied to every definition")
	cmd.Flags().BoolVar(&publish, "publish", false, "mark every definition as published")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply database migrations first")
	return cmd
}

func seedDefinitions(ctx context.Context, svc service.QuizService, defs []*domain.QuizDefinition, owner string, publish bool, out io.Writer) error {
	for _, def := range defs {
		if owner != "" {
			def.OwnerID = owner
		}
		if publish {
			def.Status = domain.StatusPublished
		}
		if def.Status == "" {
			def.Status = domain.StatusDraft
		}
		if err := svc.SaveQuiz(ctx, def); err != nil {
			return fmt.Errorf("failed to seed %s: %w", def.Slug, err)
		}
		fmt.Fprintf(out, "seeded %s/%s (%s) id=%s\n", def.OwnerID, def.Slug, def.Status, def.ID)
	}
	return nil
}
