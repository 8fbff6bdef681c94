package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/odhql"
	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/output"
	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/reader"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	*RootOptions
	Query string
	Limit int
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query [QUERY]",
		Short: "Run an OdhQL query over the configured sources",
		Long: `Run an OdhQL query and print the result.

The query is taken from --query, the argument, or standard input when the
argument is "-".

Example:
  odhql query -s employee=employee.csv "SELECT e.prename FROM employee AS e WHERE e.id > 0"
  odhql query --config sources.yaml -f csv -q "SELECT c.prename FROM child AS c ORDER BY 1"`,
		Args:          usageArgs(cobra.MaximumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "OdhQL query text")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "limit number of rows printed (0 = unlimited)")

	return cmd
}

func runQuery(opts *QueryOptions, args []string, cmd *cobra.Command) error {
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--limit must be non-negative, got %d", opts.Limit))
	}
	text, err := queryText(opts.Query, args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	u, err := odhql.Parse(text)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid query", err)
	}

	sources, err := loadSources(opts.RootOptions)
	if err != nil {
		return err
	}

	result, err := odhql.Execute(u, sources)
	if err != nil {
		return WrapExitError(ExitFailure, "query failed", err)
	}
	slog.Debug("query executed", "rows", result.Len(), "columns", result.Width())

	if opts.Limit > 0 && result.Len() > opts.Limit {
		rows := make([]int, opts.Limit)
		for i := range rows {
			rows[i] = i
		}
		result = result.Take(rows)
	}
	return writeFrame(cmd.OutOrStdout(), opts.Format, result)
}

// queryText resolves the query from the flag, the argument or stdin.
func queryText(flag string, args []string, stdin io.Reader) (string, error) {
	var text string
	switch {
	case flag != "" && len(args) > 0:
		return "", NewExitError(ExitCommandError, "give the query either with --query or as an argument, not both")
	case flag != "":
		text = flag
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", WrapExitError(ExitCommandError, "failed to read query from stdin", err)
		}
		text = string(data)
	case len(args) == 1:
		text = args[0]
	}
	if strings.TrimSpace(text) == "" {
		return "", NewExitError(ExitCommandError, "missing query")
	}
	return text, nil
}

func loadSources(opts *RootOptions) (map[string]*frame.Frame, error) {
	specs, err := opts.specs()
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, NewExitError(ExitCommandError, "no sources given, use --source or --config")
	}
	sources, err := reader.LoadAll(specs)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load sources", err)
	}
	return sources, nil
}

func writeFrame(w io.Writer, format string, f *frame.Frame) error {
	formatter, err := output.New(format, w)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid format", err)
	}
	if err := formatter.Format(f); err != nil {
		return WrapExitError(ExitFailure, "failed to write output", err)
	}
	return nil
}
