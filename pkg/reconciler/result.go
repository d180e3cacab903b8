package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/blobtable/pkg/clusters"
)

// Result represents the outcome of a reconciliation.
type Result struct {
	// Rows are the aligned clusters in fine-table order.
	Rows []Aligned

	// Metadata
	Metadata ResultMetadata

	// Warnings collects tolerated ambiguities.
	Warnings []string
}

// ResultMetadata contains metadata about the reconciliation process.
type ResultMetadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Polarity of the reconciled clusters
	Polarity clusters.Polarity

	// Strategy actually used for matching
	Strategy StrategyType

	// Statistics about the reconciliation
	Stats ResultStatistics
}

// ResultStatistics contains statistics about the reconciliation.
type ResultStatistics struct {
	Input     int // fine records received
	Dropped   int // fine records without coverage
	Matched   int // clusters aligned
	Ambiguous int // keys bound under AmbiguityFirst
}

// IsEmpty reports whether no cluster survived.
func (r *Result) IsEmpty() bool {
	return len(r.Rows) == 0
}

// HasWarnings returns true if any ambiguity was tolerated.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	s := r.Metadata.Stats
	summary := fmt.Sprintf("Reconciled %d %s clusters (%d dropped without coverage) using %s matching",
		s.Matched, r.Metadata.Polarity, s.Dropped, r.Metadata.Strategy.Name())
	if s.Ambiguous > 0 {
		summary += fmt.Sprintf("; %d ambiguous keys bound to their first match", s.Ambiguous)
	}
	return summary
}

// NewResult creates a new result with defaults.
func NewResult() *Result {
	return &Result{
		Rows:     []Aligned{},
		Warnings: []string{},
		Metadata: ResultMetadata{
			StartTime: time.Now().UTC(),
		},
	}
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.EndTime = time.Now().UTC()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
}
