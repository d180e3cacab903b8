// Package blobtable turns a statistical brain-activation map into
// publication-ready cluster tables: one row per spatial cluster with its
// atlas region names, heuristic names, network label, peak coordinate and
// peak statistic.
//
// The Annotator drives the pipeline per polarity: a Splitter cuts the image
// into positive and negative cluster sets, a Describer computes a fine-tier
// and a network-tier descriptor pass for each set, the reconciler aligns the
// independently ordered descriptor tables, and the table assembler resolves
// labels and numbers the clusters.
//
// Example usage:
//
//	bundle, err := volume.LoadBundle("scan.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	a, err := blobtable.New(
//	    blobtable.WithAtlas("glasser"),
//	    blobtable.WithNegative(true),
//	    blobtable.WithDescriber(volume.NewDescriber(bundle.Labels)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tables, err := a.Annotate(ctx, bundle.Image)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, row := range tables.Positive.Rows {
//	    fmt.Println(row.Cluster, row.Regions, row.Network)
//	}
//
// Callers that already hold descriptor tables can skip the collaborators
// with AnnotateDescriptors.
package blobtable

import (
	"context"
	"fmt"

	"github.com/agentstation/blobtable/pkg/atlas"
	"github.com/agentstation/blobtable/pkg/clusters"
	"github.com/agentstation/blobtable/pkg/errors"
	"github.com/agentstation/blobtable/pkg/labels"
	"github.com/agentstation/blobtable/pkg/logging"
	"github.com/agentstation/blobtable/pkg/reconciler"
	"github.com/agentstation/blobtable/pkg/table"
	"github.com/agentstation/blobtable/pkg/volume"
)

// Compile-time interface check.
var _ Annotator = (*annotator)(nil)

// Annotator produces annotated cluster tables.
type Annotator interface {
	// Annotate runs the full pipeline over a single-volume statistic image.
	Annotate(ctx context.Context, img clusters.Image) (*Tables, error)

	// AnnotateDescriptors builds tables from precomputed descriptor passes.
	// A nil negative is an empty negative pass.
	AnnotateDescriptors(ctx context.Context, statType string, positive, negative *Passes) (*Tables, error)

	// Atlas returns the thresholded fine atlas in use.
	Atlas() *atlas.Atlas
}

// annotator is the default implementation of Annotator.
type annotator struct {
	options    *options
	atlas      *atlas.Atlas
	reconciler reconciler.Reconciler
}

// New creates an Annotator with the given options.
func New(opts ...Option) (Annotator, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	registry := o.registry
	if registry == nil {
		if registry, err = atlas.Embedded(); err != nil {
			return nil, errors.WrapResource("load", "atlas registry", "embedded", err)
		}
	}
	base, err := registry.Get(o.atlasName)
	if err != nil {
		return nil, err
	}
	thresholded, err := base.WithThreshold(o.threshold)
	if err != nil {
		return nil, err
	}

	if o.splitter == nil {
		if o.splitter, err = volume.NewSplitter(); err != nil {
			return nil, errors.WrapResource("create", "splitter", "", err)
		}
	}

	ropts := []reconciler.Option{reconciler.WithAmbiguityPolicy(o.ambiguity)}
	if o.strategy != nil {
		ropts = append(ropts, reconciler.WithStrategy(o.strategy))
	}
	rec, err := reconciler.New(ropts...)
	if err != nil {
		return nil, err
	}

	return &annotator{options: o, atlas: thresholded, reconciler: rec}, nil
}

// Atlas returns the thresholded fine atlas in use.
func (a *annotator) Atlas() *atlas.Atlas {
	return a.atlas
}

// Annotate splits the image, describes each cluster set at both tiers and
// assembles the tables. Multi-frame images are rejected before any work.
func (a *annotator) Annotate(ctx context.Context, img clusters.Image) (*Tables, error) {
	if img == nil {
		return nil, &errors.ValidationError{Field: "image", Message: "cannot be nil"}
	}
	if frames := img.Frames(); frames > 1 {
		return nil, &errors.ValidationError{
			Field:   "image",
			Value:   frames,
			Message: "expected a single 3-D volume, got a multi-frame image",
		}
	}
	if a.options.describer == nil {
		return nil, &errors.ValidationError{Field: "describer", Message: "no descriptor generator configured"}
	}

	ctx = a.runContext(ctx, "annotate")
	logger := logging.FromContext(ctx)

	pos, neg, err := a.options.splitter.Split(ctx, img)
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("positive", pos.Len()).Int("negative", neg.Len()).Msg("Split image")

	positive, err := a.describe(ctx, pos)
	if err != nil {
		return nil, err
	}

	var negative *Passes
	if a.options.includeNegative {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapCanceled("annotate", err)
		}
		if negative, err = a.describe(ctx, neg); err != nil {
			return nil, err
		}
	}

	return a.build(ctx, img.StatType(), positive, negative)
}

// AnnotateDescriptors reconciles and assembles precomputed descriptor passes.
func (a *annotator) AnnotateDescriptors(ctx context.Context, statType string, positive, negative *Passes) (*Tables, error) {
	return a.build(a.runContext(ctx, "annotate_descriptors"), statType, positive, negative)
}

// runContext attaches the logger and run fields to ctx.
func (a *annotator) runContext(ctx context.Context, operation string) context.Context {
	if a.options.logger != nil {
		ctx = logging.WithLogger(ctx, a.options.logger)
	}
	ctx = logging.WithAtlas(ctx, a.atlas.Name)
	return logging.WithOperation(ctx, operation)
}

// describe computes the fine-tier and network-tier passes of one cluster set.
func (a *annotator) describe(ctx context.Context, set clusters.Set) (*Passes, error) {
	ctx = logging.WithPolarity(ctx, set.Polarity().String())

	fine, err := a.options.describer.Describe(ctx, clusters.Request{
		Set:     set,
		Atlas:   a.atlas,
		Tier:    atlas.TierRegion,
		Verbose: a.options.verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("describe %s clusters at %s tier: %w", set.Polarity(), atlas.TierRegion, err)
	}

	network, err := a.options.describer.Describe(ctx, clusters.Request{
		Set:     set,
		Atlas:   a.atlas,
		Tier:    atlas.TierNetwork,
		Verbose: a.options.verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("describe %s clusters at %s tier: %w", set.Polarity(), atlas.TierNetwork, err)
	}

	return &Passes{Fine: fine, Network: network}, nil
}

// build reconciles and assembles both polarities.
func (a *annotator) build(ctx context.Context, statType string, positive, negative *Passes) (*Tables, error) {
	logger := logging.FromContext(ctx)
	agg := labels.NewAggregator(a.atlas, logger)
	asm := table.NewAssembler(agg, statType)

	tables := &Tables{
		Atlas:      a.atlas.Name,
		StatColumn: table.StatColumn(statType),
		Warnings:   []string{},
	}

	var err error
	if tables.Positive, err = a.polarity(ctx, asm, clusters.Positive, positive, tables); err != nil {
		return nil, err
	}
	if a.options.includeNegative {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapCanceled("annotate", err)
		}
		if tables.Negative, err = a.polarity(ctx, asm, clusters.Negative, negative, tables); err != nil {
			return nil, err
		}
	}

	if a.options.showLegend {
		tables.Legend = Legend(a.atlas, tables.StatColumn)
	}
	return tables, nil
}

// polarity reconciles and assembles the table of one polarity.
func (a *annotator) polarity(ctx context.Context, asm *table.Assembler, polarity clusters.Polarity, passes *Passes, tables *Tables) (*table.Table, error) {
	ctx = logging.WithPolarity(ctx, polarity.String())

	var in reconciler.Input
	if passes == nil {
		in = reconciler.Input{Polarity: polarity}
	} else {
		in = reconciler.NewInput(polarity, passes.Fine, passes.Network)
	}

	result, err := a.reconciler.Reconcile(ctx, in)
	if err != nil {
		return nil, err
	}
	tables.Warnings = append(tables.Warnings, result.Warnings...)
	tables.results = append(tables.results, result)

	t := asm.Assemble(polarity, result.Rows)
	logging.FromContext(ctx).Info().
		Int("rows", t.Len()).
		Int("dropped", result.Metadata.Stats.Dropped).
		Str("strategy", result.Metadata.Strategy.String()).
		Msg("Assembled cluster table")
	return t, nil
}
