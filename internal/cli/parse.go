package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/odhql"
)

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse QUERY",
		Short: "Check a query and print it in normalized form",
		Long: `Parse an OdhQL query without running it.

On success the query is printed back in normalized form, which parses to
the same tree. Syntax errors are reported with line and column.`,
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := queryText("", args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			u, err := odhql.Parse(text)
			if err != nil {
				return WrapExitError(ExitFailure, "invalid query", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), u.String())
			return err
		},
	}
	return cmd
}
