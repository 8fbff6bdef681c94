package cli

import (
	"github.com/spf13/cobra"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/reader"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the columns of the configured sources",
		Long: `Show the columns of every source and the OdhQL type each is read as.

Parquet sources also report their physical and logical types. For glob
patterns the first matching file is described.`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := rootOpts.specs()
			if err != nil {
				return err
			}
			if len(specs) == 0 {
				return NewExitError(ExitCommandError, "no sources given, use --source or --config")
			}
			f, err := schemaFrame(specs)
			if err != nil {
				return err
			}
			return writeFrame(cmd.OutOrStdout(), rootOpts.Format, f)
		},
	}
	return cmd
}

func schemaFrame(specs []reader.Spec) (*frame.Frame, error) {
	var records []map[string]any
	for _, spec := range specs {
		infos, err := reader.Describe(spec)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to describe "+spec.Name, err)
		}
		for _, info := range infos {
			var odhType any
			if info.OdhType != 0 {
				odhType = info.OdhType.String()
			}
			records = append(records, map[string]any{
				"source":        spec.Name,
				"name":          info.Name,
				"type":          odhType,
				"physical_type": emptyAsNull(info.PhysicalType),
				"logical_type":  emptyAsNull(info.LogicalType),
				"required":      info.Required,
				"optional":      info.Optional,
				"repeated":      info.Repeated,
			})
		}
	}
	names := []string{"source", "name", "type", "physical_type", "logical_type", "required", "optional", "repeated"}
	return frame.FromRecords("schema", names, records)
}

func emptyAsNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}
