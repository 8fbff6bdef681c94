package cli

import (
	"github.com/spf13/cobra"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/odhql/functions"
)

// NewFunctionsCommand creates the functions command.
func NewFunctionsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "functions",
		Short:         "List the functions available in queries",
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeFrame(cmd.OutOrStdout(), rootOpts.Format, functionsFrame(functions.Default()))
		},
	}
	return cmd
}

// functionsFrame lists a registry as name, signature, result type and
// description. Functions whose result type depends on the input have a
// null result type.
func functionsFrame(reg *functions.Registry) *frame.Frame {
	fns := reg.Functions()
	names := make([]any, len(fns))
	signatures := make([]any, len(fns))
	returns := make([]any, len(fns))
	docs := make([]any, len(fns))
	for i, fn := range fns {
		names[i] = fn.Name
		signatures[i] = fn.Signature()
		if fn.Returns != 0 {
			returns[i] = fn.Returns.String()
		}
		if fn.Doc != "" {
			docs[i] = fn.Doc
		}
	}
	return frame.MustNew("functions",
		frame.NewColumn("name", names),
		frame.NewColumn("signature", signatures),
		frame.NewColumn("returns", returns),
		frame.NewColumn("description", docs),
	)
}
