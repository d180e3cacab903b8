package blobtable

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/blobtable/pkg/atlas"
	"github.com/agentstation/blobtable/pkg/clusters"
	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/errors"
	"github.com/agentstation/blobtable/pkg/reconciler"
)

// Option is a function that configures an Annotator.
type Option func(*options) error

// options holds the Annotator configuration.
type options struct {
	atlasName       string
	registry        *atlas.Registry
	includeNegative bool
	threshold       float64
	verbose         bool
	showLegend      bool

	// collaborators
	splitter  clusters.Splitter
	describer clusters.Describer

	// reconciliation
	ambiguity reconciler.AmbiguityPolicy
	strategy  reconciler.Strategy

	logger *zerolog.Logger
}

// defaults returns options with default values.
func defaults() *options {
	return &options{
		atlasName: constants.DefaultAtlas,
		threshold: constants.DefaultCoverageThreshold,
		ambiguity: reconciler.AmbiguityFail,
	}
}

// apply applies the given options in order.
func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithAtlas selects the fine atlas by name.
func WithAtlas(name string) Option {
	return func(o *options) error {
		if name == "" {
			return &errors.ValidationError{Field: "atlas", Message: "cannot be empty"}
		}
		o.atlasName = name
		return nil
	}
}

// WithAtlasRegistry sets the registry atlases are looked up in. The embedded
// registry is used when none is given.
func WithAtlasRegistry(r *atlas.Registry) Option {
	return func(o *options) error {
		if r == nil {
			return &errors.ValidationError{Field: "registry", Message: "cannot be nil"}
		}
		o.registry = r
		return nil
	}
}

// WithNegative enables the negative-polarity table.
func WithNegative(enabled bool) Option {
	return func(o *options) error {
		o.includeNegative = enabled
		return nil
	}
}

// WithCoverageThreshold sets the minimum percent of a cluster a region must
// cover to be reported.
func WithCoverageThreshold(percent float64) Option {
	return func(o *options) error {
		o.threshold = percent
		return nil
	}
}

// WithVerbose asks descriptor generators for per-cluster diagnostics.
func WithVerbose(enabled bool) Option {
	return func(o *options) error {
		o.verbose = enabled
		return nil
	}
}

// WithShowLegend attaches a legend to the produced tables.
func WithShowLegend(enabled bool) Option {
	return func(o *options) error {
		o.showLegend = enabled
		return nil
	}
}

// WithSplitter sets the cluster splitter used by Annotate.
func WithSplitter(s clusters.Splitter) Option {
	return func(o *options) error {
		if s == nil {
			return &errors.ValidationError{Field: "splitter", Message: "cannot be nil"}
		}
		o.splitter = s
		return nil
	}
}

// WithDescriber sets the descriptor generator used by Annotate.
func WithDescriber(d clusters.Describer) Option {
	return func(o *options) error {
		if d == nil {
			return &errors.ValidationError{Field: "describer", Message: "cannot be nil"}
		}
		o.describer = d
		return nil
	}
}

// WithAmbiguityPolicy sets how keys with several counterparts are handled.
func WithAmbiguityPolicy(p reconciler.AmbiguityPolicy) Option {
	return func(o *options) error {
		o.ambiguity = p
		return nil
	}
}

// WithStrategy sets the reconciliation strategy. Defaults to auto.
func WithStrategy(s reconciler.Strategy) Option {
	return func(o *options) error {
		if s == nil {
			return &errors.ValidationError{Field: "strategy", Message: "cannot be nil"}
		}
		o.strategy = s
		return nil
	}
}

// WithLogger sets the logger. Defaults to the logger in the call context,
// then the package default.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}
