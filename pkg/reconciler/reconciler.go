// Package reconciler aligns the independently ordered descriptor tables of
// one cluster polarity into a single record per cluster.
//
// The fine-atlas region table drives the output: its order becomes the table
// order and its surviving rows become the clusters. Peak records are bound by
// the composite key (volume, region count, coverage percent) and network
// records by volume alone, unless every record carries a cluster ID, in which
// case the ID is used instead. A key with no counterpart is always an error;
// a key with several counterparts is an error unless the ambiguity policy
// allows taking the first one.
package reconciler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/blobtable/pkg/clusters"
	"github.com/agentstation/blobtable/pkg/errors"
	"github.com/agentstation/blobtable/pkg/logging"
)

// Names of the candidate tables, as reported in reconciliation errors.
const (
	sourcePeaks   = "peaks"
	sourceNetwork = "network"
)

// Reconciler aligns descriptor tables of one polarity.
type Reconciler interface {
	// Reconcile binds every covered fine record to its peak and network records.
	Reconcile(ctx context.Context, in Input) (*Result, error)
}

// Input holds the three descriptor tables of one polarity.
type Input struct {
	Polarity clusters.Polarity
	Regions  []clusters.RegionRecord
	Peaks    []clusters.PeakRecord
	Networks []clusters.RegionRecord
}

// NewInput assembles an Input from a fine-tier and a network-tier pass.
func NewInput(polarity clusters.Polarity, fine, network *clusters.Descriptors) Input {
	in := Input{Polarity: polarity}
	if fine != nil {
		in.Regions = fine.Regions
		in.Peaks = fine.Peaks
	}
	if network != nil {
		in.Networks = network.Regions
	}
	return in
}

// HasIdentity reports whether every record of every table carries a cluster ID.
func (in Input) HasIdentity() bool {
	fine := clusters.Descriptors{Regions: in.Regions, Peaks: in.Peaks}
	network := clusters.Descriptors{Regions: in.Networks}
	return fine.HasIdentity() && network.HasIdentity()
}

// Aligned is one reconciled cluster.
type Aligned struct {
	// Index is the position of the fine record in the fine table.
	Index     int
	ClusterID string
	Key       clusters.Key
	Regions   []string
	Peak      clusters.PeakRecord
	// NetworkLabel is the modal network-tier label bound to the cluster.
	NetworkLabel string
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	strategy  Strategy
	ambiguity AmbiguityPolicy
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{
		strategy:  options.strategy,
		ambiguity: options.ambiguity,
	}, nil
}

// reconcileContext holds shared state for one reconciliation.
type reconcileContext struct {
	ctx     context.Context
	input   Input
	matcher Matcher
	result  *Result
	logger  *zerolog.Logger
}

// Reconcile performs reconciliation step by step.
func (r *reconciler) Reconcile(ctx context.Context, in Input) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapCanceled("reconcile", err)
	}

	// Step 1: validate the tables
	if err := validateInput(in); err != nil {
		return nil, err
	}

	// Step 2: drop clusters without atlas coverage
	fine, dropped := coveredRegions(in.Regions)

	// Step 3: index candidate tables
	rctx := r.initialize(ctx, in, fine)
	rctx.result.Metadata.Stats.Input = len(in.Regions)
	rctx.result.Metadata.Stats.Dropped = dropped
	if dropped > 0 {
		rctx.logger.Debug().Int("dropped", dropped).Msg("Dropped clusters without atlas coverage")
	}

	// Step 4: bind peaks and network labels in fine order
	for _, fr := range fine {
		aligned, err := r.align(rctx, fr)
		if err != nil {
			rctx.logger.Debug().Err(err).Msg("Reconciliation failed")
			return nil, err
		}
		rctx.result.Rows = append(rctx.result.Rows, aligned)
	}

	// Step 5: finalize
	rctx.result.Metadata.Stats.Matched = len(rctx.result.Rows)
	rctx.result.Finalize()
	rctx.logger.Debug().
		Int("clusters", len(rctx.result.Rows)).
		Int("warnings", len(rctx.result.Warnings)).
		Str("strategy", rctx.result.Metadata.Strategy.String()).
		Msg("Reconciled descriptor tables")

	return rctx.result, nil
}

// indexedRegion pairs a fine record with its original position.
type indexedRegion struct {
	index  int
	record clusters.RegionRecord
}

// initialize sets up the reconciliation context.
func (r *reconciler) initialize(ctx context.Context, in Input, fine []indexedRegion) *reconcileContext {
	ctx = logging.WithPolarity(ctx, in.Polarity.String())
	matcher := r.strategy.Index(in)

	result := NewResult()
	result.Metadata.Polarity = in.Polarity
	result.Metadata.Strategy = matcher.Type()
	result.Rows = make([]Aligned, 0, len(fine))

	return &reconcileContext{
		ctx:     ctx,
		input:   in,
		matcher: matcher,
		result:  result,
		logger:  logging.FromContext(ctx),
	}
}

// align binds one fine record.
func (r *reconciler) align(rctx *reconcileContext, fr indexedRegion) (Aligned, error) {
	peakIdx, err := r.pick(rctx, sourcePeaks, fr.index, rctx.matcher.Peaks(fr.record))
	if err != nil {
		return Aligned{}, err
	}
	netIdx, err := r.pick(rctx, sourceNetwork, fr.index, rctx.matcher.Network(fr.record))
	if err != nil {
		return Aligned{}, err
	}

	peak := rctx.input.Peaks[peakIdx]
	network := rctx.input.Networks[netIdx]

	clusterCtx := logging.WithFields(rctx.ctx, map[string]any{
		"cluster": fr.index,
		"key":     fr.record.Key().String(),
	})
	logging.FromContext(clusterCtx).Debug().
		Int("peak_row", peakIdx).
		Int("network_row", netIdx).
		Msg("Bound cluster")

	return Aligned{
		Index:        fr.index,
		ClusterID:    fr.record.ClusterID,
		Key:          fr.record.Key(),
		Regions:      fr.record.Regions,
		Peak:         peak,
		NetworkLabel: network.ModalLabel,
	}, nil
}

// pick applies the zero/multiple match rules to a candidate list.
func (r *reconciler) pick(rctx *reconcileContext, source string, index int, m Match) (int, error) {
	switch {
	case len(m.Candidates) == 1:
		return m.Candidates[0], nil
	case len(m.Candidates) == 0:
		return -1, errors.NewReconciliationError(source, index, m.Key, 0)
	case r.ambiguity == AmbiguityFirst:
		rctx.result.Metadata.Stats.Ambiguous++
		warning := errors.NewReconciliationError(source, index, m.Key, len(m.Candidates)).Error() + "; using first match"
		rctx.result.Warnings = append(rctx.result.Warnings, warning)
		rctx.logger.Warn().
			Int("cluster", index).
			Str("source", source).
			Str("key", m.Key).
			Int("matches", len(m.Candidates)).
			Msg("Ambiguous match, binding first candidate")
		return m.Candidates[0], nil
	default:
		return -1, errors.NewReconciliationError(source, index, m.Key, len(m.Candidates))
	}
}
