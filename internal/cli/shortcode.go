package cli

import (
	"fmt"
	"io"
	"os"

	"quiz-funnel/internal/shortcode"

	"github.com/spf13/cobra"
)

func newShortcodeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shortcode",
		Short: "Build or resolve [quiz] shortcodes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "build <slug>",
		Short: "Print the shortcode an author pastes into host content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(opts.out, shortcode.Build(args[0]))
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "render [file]",
		Short: "Replace shortcodes in a file (or stdin) with widget mount points",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if len(args) == 1 && args[0] != "-" {
				raw, err = os.ReadFile(args[0])
			} else {
				raw, err = io.ReadAll(opts.in)
			}
			if err != nil {
				return err
			}
			content, _ := shortcode.Render(string(raw))
			_, err = io.WriteString(opts.out, content)
			return err
		},
	})
	return cmd
}
