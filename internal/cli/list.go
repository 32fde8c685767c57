package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the published quizzes of the api key's namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.server == "" {
				return errors.New("--server is required")
			}
			quizzes, err := opts.client().ListQuizzes(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(opts.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SLUG\tTITLE")
			for _, q := range quizzes {
				fmt.Fprintf(w, "%s\t%s\n", q.Slug, q.Title)
			}
			return w.Flush()
		},
	}
}
