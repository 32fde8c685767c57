// Package cli implements quizctl, the operator command line.
package cli

import (
	"io"
	"os"

	"quiz-funnel/internal/config"
	"quiz-funnel/internal/logger"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	server     string
	apiKey     string
	token      string
	verbose    bool

	in  io.Reader
	out io.Writer
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd(os.Stdin, os.Stdout).Execute()
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	opts := &rootOptions{
		server: os.Getenv("QUIZ_SERVER"),
		apiKey: os.Getenv("QUIZ_API_KEY"),
		token:  os.Getenv("QUIZ_TOKEN"),
		in:     in,
		out:    out,
	}

	cmd := &cobra.Command{
		Use:           "quizctl",
		Short:         "Operate and play quiz funnels",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			return logger.Initialize(config.LoggerConfig{Level: level, Env: "development", Output: "stderr"})
		},
	}
	cmd.SetIn(in)
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml (default: search . and ./config)")
	cmd.PersistentFlags().StringVar(&opts.server, "server", opts.server, "quiz API base URL")
	cmd.PersistentFlags().StringVar(&opts.apiKey, "api-key", opts.apiKey, "apikey header sent to the quiz API")
	cmd.PersistentFlags().StringVar(&opts.token, "token", opts.token, "bearer token sent to the quiz API")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log engine activity")

	cmd.AddCommand(newPlayCmd(opts))
	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	cmd.AddCommand(newShortcodeCmd(opts))
	cmd.AddCommand(newTokenCmd(opts))
	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	return config.Load(o.configPath)
}
