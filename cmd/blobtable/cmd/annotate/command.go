// Package annotate provides the annotate command: the full pipeline from a
// statistic image bundle to annotated cluster tables.
package annotate

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/blobtable"
	"github.com/agentstation/blobtable/cmd/application"
	"github.com/agentstation/blobtable/internal/cmd/cmdutil"
	"github.com/agentstation/blobtable/pkg/errors"
	"github.com/agentstation/blobtable/pkg/logging"
	"github.com/agentstation/blobtable/pkg/volume"
)

// NewCommand creates the annotate command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		input        string
		connectivity int
		minExtent    int
	)

	cmd := &cobra.Command{
		Use:     "annotate",
		GroupID: "core",
		Short:   "Build cluster tables from a statistic image",
		Long: `Annotate splits a thresholded statistic image into positive and negative
clusters, labels each cluster against the fine atlas and its network tier,
and prints one table per polarity.

The input is a YAML bundle holding the statistic grid, its voxel-to-mm affine
and one label grid per atlas.`,
		Args: cobra.NoArgs,
		Example: `  blobtable annotate --input scan.yaml
  blobtable annotate --input scan.yaml --negative --legend
  blobtable annotate --input scan.yaml --atlas desikan --threshold 10
  blobtable annotate --input scan.yaml --save results/scan.csv
  blobtable annotate --input scan.yaml -o json`,
	}
	flags := cmdutil.AddAnnotationFlags(cmd)
	cmd.Flags().StringVarP(&input, "input", "i", "", "statistic image bundle (YAML)")
	cmd.Flags().IntVar(&connectivity, "connectivity", int(volume.Vertices), "voxel neighbourhood: 6, 18 or 26")
	cmd.Flags().IntVar(&minExtent, "min-extent", 0, "drop clusters with fewer voxels")
	_ = cmd.MarkFlagRequired("input")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := cmdutil.RunContext(cmd, app.Logger())
		defer cancel()

		bundle, err := volume.LoadBundle(input)
		if err != nil {
			return err
		}
		splitter, err := volume.NewSplitter(
			volume.WithConnectivity(volume.Connectivity(connectivity)),
			volume.WithMinExtent(minExtent),
		)
		if err != nil {
			return err
		}

		opts, err := flags.Options(cmd)
		if err != nil {
			return &errors.ValidationError{Field: "flags", Message: err.Error()}
		}
		opts = append(opts,
			blobtable.WithSplitter(splitter),
			blobtable.WithDescriber(volume.NewDescriber(bundle.Labels)),
		)
		annotator, err := app.Annotator(opts...)
		if err != nil {
			return err
		}

		logging.FromContext(ctx).Debug().
			Str("input", input).
			Str("atlas", annotator.Atlas().Name).
			Msg("Annotating image")

		tables, err := annotator.Annotate(ctx, bundle.Image)
		if err != nil {
			return err
		}
		return cmdutil.WriteTables(ctx, cmd, app.OutputFormat(), tables, flags.Save)
	}

	return cmd
}
