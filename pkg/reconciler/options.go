package reconciler

import (
	"fmt"
	"strings"

	"github.com/agentstation/blobtable/pkg/errors"
)

// AmbiguityPolicy decides what happens when a key has several counterparts.
type AmbiguityPolicy string

const (
	// AmbiguityFail rejects ambiguous keys with a ReconciliationError.
	AmbiguityFail AmbiguityPolicy = "fail"
	// AmbiguityFirst binds the first candidate in table order and records a warning.
	AmbiguityFirst AmbiguityPolicy = "first"
)

// String returns the policy name.
func (p AmbiguityPolicy) String() string {
	return string(p)
}

// ParseAmbiguityPolicy parses a policy name; "" means AmbiguityFail.
func ParseAmbiguityPolicy(s string) (AmbiguityPolicy, error) {
	switch p := AmbiguityPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case AmbiguityFail, AmbiguityFirst:
		return p, nil
	case "":
		return AmbiguityFail, nil
	default:
		return "", fmt.Errorf("unknown ambiguity policy %q", s)
	}
}

// options configures a reconciler.
type options struct {
	strategy  Strategy
	ambiguity AmbiguityPolicy
}

func defaultOptions() *options {
	return &options{
		strategy:  NewAutoStrategy(),
		ambiguity: AmbiguityFail,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithStrategy sets the matching strategy.
func WithStrategy(strategy Strategy) Option {
	return func(o *options) error {
		if strategy == nil {
			return &errors.ValidationError{
				Field:   "strategy",
				Message: "cannot be nil",
			}
		}
		o.strategy = strategy
		return nil
	}
}

// WithAmbiguityPolicy sets how ambiguous keys are handled.
func WithAmbiguityPolicy(policy AmbiguityPolicy) Option {
	return func(o *options) error {
		switch policy {
		case AmbiguityFail, AmbiguityFirst:
			o.ambiguity = policy
			return nil
		default:
			return &errors.ValidationError{
				Field:   "ambiguity",
				Value:   policy,
				Message: "must be fail or first",
			}
		}
	}
}
