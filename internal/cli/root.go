package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/output"
	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/reader"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string   // see output.Formats
	Sources []string // name=path[#table]
	Config  string   // YAML sources file

	config *Config
	// formatSet records whether --format was given explicitly
	formatSet bool
}

// NewRootCommand creates the root command for the odhql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "odhql",
		Short: "Query tabular data with OdhQL",
		Long: `Run OdhQL queries over Parquet, CSV and SQLite sources.

Sources are registered by name with --source name=path[#table] or in a
YAML file passed with --config, and queried by that name:

  odhql query -s employee=employee.csv -s child=people.db#child \
    "SELECT e.prename, c.prename AS child FROM employee AS e JOIN child AS c ON e.id = c.parent"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd.ErrOrStderr(), opts.Verbose)
			return opts.complete(cmd)
		},
	}
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", "table", "output format (jsonl|json|csv|table)")
	cmd.PersistentFlags().StringArrayVarP(&opts.Sources, "source", "s", nil, "data source as name=path[#table], repeatable")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "YAML file listing sources")

	// Add subcommands
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewFunctionsCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))

	return cmd
}

// complete loads the config file and validates the output format. Flags
// override config values.
func (o *RootOptions) complete(cmd *cobra.Command) error {
	o.formatSet = cmd.Flags().Changed("format")
	if o.Config != "" {
		cfg, err := LoadConfig(o.Config)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid config", err)
		}
		o.config = cfg
		if !o.formatSet && cfg.Format != "" {
			o.Format = cfg.Format
		}
	}
	if _, err := output.New(o.Format, io.Discard); err != nil {
		return WrapExitError(ExitCommandError, "invalid format", err)
	}
	return nil
}

// specs returns the configured sources, config first.
func (o *RootOptions) specs() ([]reader.Spec, error) {
	specs, err := mergeSources(o.config, o.Sources)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid source", err)
	}
	return specs, nil
}

// setupLogging installs a text handler on w, at Debug level when verbose.
func setupLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
