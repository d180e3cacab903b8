// Package cmdutil provides flags shared by the blobtable annotation commands.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/blobtable"
	"github.com/agentstation/blobtable/pkg/reconciler"
)

// AnnotationFlags holds the flags that override annotation settings.
type AnnotationFlags struct {
	Atlas     string
	Negative  bool
	Threshold float64
	Legend    bool
	Ambiguity string
	Strategy  string
	Save      string
}

// AddAnnotationFlags adds the annotation flags to a command.
func AddAnnotationFlags(cmd *cobra.Command) *AnnotationFlags {
	flags := &AnnotationFlags{}

	cmd.Flags().StringVarP(&flags.Atlas, "atlas", "a", "",
		"Fine atlas name (default from config, else glasser)")
	cmd.Flags().BoolVarP(&flags.Negative, "negative", "n", false,
		"Also build the negative cluster table")
	cmd.Flags().Float64VarP(&flags.Threshold, "threshold", "t", 0,
		"Minimum percent of a cluster a region must cover")
	cmd.Flags().BoolVar(&flags.Legend, "legend", false,
		"Print a legend explaining the columns")
	cmd.Flags().StringVar(&flags.Ambiguity, "ambiguity", "",
		"Ambiguous match policy: fail, first")
	cmd.Flags().StringVar(&flags.Strategy, "strategy", "",
		"Reconciliation strategy: auto, identity, composite-key")
	cmd.Flags().StringVarP(&flags.Save, "save", "s", "",
		"Also save the tables (.csv writes one file per polarity, .db/.sqlite appends a run)")

	return flags
}

// Options returns library options for the flags set on the command line.
// Unset flags leave the configured values in place.
func (f *AnnotationFlags) Options(cmd *cobra.Command) ([]blobtable.Option, error) {
	var opts []blobtable.Option
	changed := cmd.Flags().Changed

	if changed("atlas") {
		opts = append(opts, blobtable.WithAtlas(f.Atlas))
	}
	if changed("negative") {
		opts = append(opts, blobtable.WithNegative(f.Negative))
	}
	if changed("threshold") {
		opts = append(opts, blobtable.WithCoverageThreshold(f.Threshold))
	}
	if changed("legend") {
		opts = append(opts, blobtable.WithShowLegend(f.Legend))
	}
	if changed("ambiguity") {
		policy, err := reconciler.ParseAmbiguityPolicy(f.Ambiguity)
		if err != nil {
			return nil, err
		}
		opts = append(opts, blobtable.WithAmbiguityPolicy(policy))
	}
	if changed("strategy") {
		t, err := reconciler.ParseStrategyType(f.Strategy)
		if err != nil {
			return nil, err
		}
		strategy, err := reconciler.NewStrategy(t)
		if err != nil {
			return nil, err
		}
		opts = append(opts, blobtable.WithStrategy(strategy))
	}
	return opts, nil
}
