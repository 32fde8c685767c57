package cli

import (
	"errors"
	"fmt"
	"time"

	"quiz-funnel/internal/auth"

	"github.com/spf13/cobra"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with the configured JWT secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			a := auth.New(cfg.Auth)
			if !a.RequiresToken() {
				return errors.New("auth.jwt_secret is not configured")
			}
			token, err := a.CreateJWT(subject, role, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(opts.out, token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "embed", "token subject")
	cmd.Flags().StringVar(&role, "role", "embed", "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
