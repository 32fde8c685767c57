package cli

import (
	"context"
	"errors"
	"fmt"

	"quiz-funnel/internal/apiclient"
	"quiz-funnel/internal/engine"
	"quiz-funnel/internal/gateway"
	"quiz-funnel/internal/logger"

	"github.com/spf13/cobra"
)

const playerUserAgent = "quizctl/1.0"

func newPlayCmd(opts *rootOptions) *cobra.Command {
	var (
		file   string
		submit bool
	)
	cmd := &cobra.Command{
		Use:   "play [slug]",
		Short: "Play a quiz in the terminal",
		Long: "Play a published quiz from the API (--server) or a local YAML/JSON definition (--file).\n" +
			"Answers are submitted to the API; with --file they are discarded unless --submit is set.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var slug string
			if len(args) == 1 {
				slug = args[0]
			}

			engineOpts := engine.Options{}
			cfg, err := opts.loadConfig()
			switch {
			case err == nil:
				engineOpts = engine.OptionsFromConfig(cfg.Engine)
			case opts.configPath != "":
				return err
			}

			var client *apiclient.Client
			if opts.server != "" {
				client = opts.client()
			}

			switch {
			case file != "":
				def, err := ReadDefinition(file)
				if err != nil {
					return err
				}
				if slug == "" {
					slug = def.Slug
				}
				engineOpts.Loader = fileLoader{def: def}
				engineOpts.Gateway = gateway.Discard{}
				if submit {
					if client == nil {
						return errors.New("--submit requires --server")
					}
					engineOpts.Gateway = gateway.NewHTTP(client)
				}
			case client != nil:
				if slug == "" {
					return errors.New("a slug is required when playing from --server")
				}
				engineOpts.Loader = client
				engineOpts.Gateway = gateway.NewHTTP(client)
			default:
				return errors.New("either --server or --file is required")
			}

			_, err = playQuiz(cmd.Context(), engineOpts, slug, NewTerminal(opts.in, opts.out))
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "play a local YAML or JSON definition")
	cmd.Flags().BoolVar(&submit, "submit", false, "submit answers to --server when playing a local file")
	return cmd
}

func playQuiz(ctx context.Context, opts engine.Options, slug string, term *Terminal) (engine.Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts.ContentHost = term
	opts.UserAgent = playerUserAgent
	opts.Logger = logger.Component("play")

	run := engine.New(opts)
	defer run.Close()

	updates := run.Updates()
	if err := run.Start(ctx, slug); err != nil {
		return engine.Snapshot{}, fmt.Errorf("failed to start run: %w", err)
	}
	return term.Play(ctx, run, updates)
}

func (o *rootOptions) client() *apiclient.Client {
	var copts []apiclient.Option
	if o.apiKey != "" {
		copts = append(copts, apiclient.WithAPIKey(o.apiKey))
	}
	if o.token != "" {
		copts = append(copts, apiclient.WithBearerToken(o.token))
	}
	return apiclient.New(o.server, copts...)
}
