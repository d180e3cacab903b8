// Package reconcile provides the reconcile command, which builds cluster
// tables from descriptor passes computed elsewhere.
package reconcile

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/blobtable"
	"github.com/agentstation/blobtable/cmd/application"
	"github.com/agentstation/blobtable/internal/cmd/cmdutil"
	"github.com/agentstation/blobtable/pkg/errors"
)

// NewCommand creates the reconcile command.
func NewCommand(app application.Application) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:     "reconcile",
		GroupID: "core",
		Short:   "Build cluster tables from precomputed descriptor passes",
		Long: `Reconcile aligns fine-tier region records, peak records and network-tier
records that were computed by another tool, then aggregates labels into one
table per polarity.

Records are matched by cluster ID when every record carries one, otherwise by
(volume, region count, coverage) for peaks and by volume for networks.
A negative section in the input turns on the negative table unless
--negative is given explicitly.`,
		Args: cobra.NoArgs,
		Example: `  blobtable reconcile --input descriptors.yaml
  blobtable reconcile --input descriptors.yaml --ambiguity first
  blobtable reconcile --input descriptors.yaml --save runs.db -o yaml`,
	}
	flags := cmdutil.AddAnnotationFlags(cmd)
	cmd.Flags().StringVarP(&input, "input", "i", "", "descriptor passes (YAML)")
	_ = cmd.MarkFlagRequired("input")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := cmdutil.RunContext(cmd, app.Logger())
		defer cancel()

		in, err := LoadInput(input)
		if err != nil {
			return err
		}

		opts, err := flags.Options(cmd)
		if err != nil {
			return &errors.ValidationError{Field: "flags", Message: err.Error()}
		}
		if !cmd.Flags().Changed("negative") && in.Negative != nil {
			opts = append(opts, blobtable.WithNegative(true))
		}

		annotator, err := app.Annotator(opts...)
		if err != nil {
			return err
		}
		tables, err := annotator.AnnotateDescriptors(ctx, in.StatType, in.Positive, in.Negative)
		if err != nil {
			return err
		}
		return cmdutil.WriteTables(ctx, cmd, app.OutputFormat(), tables, flags.Save)
	}

	return cmd
}
