package blobtable

import (
	"fmt"

	"github.com/agentstation/blobtable/pkg/atlas"
	"github.com/agentstation/blobtable/pkg/clusters"
	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/reconciler"
	"github.com/agentstation/blobtable/pkg/table"
)

// Passes holds the two descriptor passes of one polarity.
type Passes struct {
	Fine    *clusters.Descriptors `json:"fine" yaml:"fine"`
	Network *clusters.Descriptors `json:"network" yaml:"network"`
}

// Tables is the outcome of one annotation run.
type Tables struct {
	Atlas      string       `json:"atlas" yaml:"atlas"`
	StatColumn string       `json:"stat_column" yaml:"stat_column"`
	Positive   *table.Table `json:"positive" yaml:"positive"`
	// Negative is nil unless the negative table was requested.
	Negative *table.Table `json:"negative,omitempty" yaml:"negative,omitempty"`
	Legend   []string     `json:"legend,omitempty" yaml:"legend,omitempty"`
	Warnings []string     `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	results []*reconciler.Result
}

// Results returns the reconciliation results in polarity order.
func (t *Tables) Results() []*reconciler.Result {
	return t.results
}

// Each calls fn for each present table, positive first.
func (t *Tables) Each(fn func(*table.Table)) {
	for _, tbl := range []*table.Table{t.Positive, t.Negative} {
		if tbl != nil {
			fn(tbl)
		}
	}
}

// Table returns the table of a polarity, or nil.
func (t *Tables) Table(p clusters.Polarity) *table.Table {
	if p == clusters.Negative {
		return t.Negative
	}
	return t.Positive
}

// Legend describes the columns of a table built against a.
func Legend(a *atlas.Atlas, statColumn string) []string {
	lines := []string{
		fmt.Sprintf("%s: cluster volume in cubic millimetres", table.ColumnVolume),
		fmt.Sprintf("%s: %s regions covering at least %s%% of the cluster",
			table.ColumnRegions, a.Name, table.FormatNumber(a.Threshold)),
	}
	if a.SupportsHeuristics() {
		lines = append(lines, fmt.Sprintf("%s: anatomical groups of the %s regions", table.ColumnHeuristics, a.Name))
	} else {
		lines = append(lines, fmt.Sprintf("%s: not available for the %s atlas", table.ColumnHeuristics, a.Name))
	}
	lines = append(lines,
		fmt.Sprintf("%s/%s/%s: peak coordinate in mm", table.ColumnX, table.ColumnY, table.ColumnZ),
		fmt.Sprintf("%s: statistic value at the peak", statColumn),
		fmt.Sprintf("%s: %s marks clusters without a cortical region", table.ColumnNetwork, constants.SubcorticalLabel),
	)
	return lines
}
