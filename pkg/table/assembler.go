package table

import (
	"github.com/agentstation/blobtable/pkg/clusters"
	"github.com/agentstation/blobtable/pkg/labels"
	"github.com/agentstation/blobtable/pkg/reconciler"
)

// Assembler builds tables from reconciled clusters.
type Assembler struct {
	labels     *labels.Aggregator
	statColumn string
}

// NewAssembler creates an assembler resolving labels with agg and naming the
// statistic column after statType.
func NewAssembler(agg *labels.Aggregator, statType string) *Assembler {
	return &Assembler{labels: agg, statColumn: StatColumn(statType)}
}

// Assemble numbers clusters 1..N in reconciled order. An empty input gives an
// empty table, not an error.
func (a *Assembler) Assemble(polarity clusters.Polarity, aligned []reconciler.Aligned) *Table {
	t := &Table{
		Polarity:   polarity,
		StatColumn: a.statColumn,
		Rows:       make([]Row, 0, len(aligned)),
	}
	for i, c := range aligned {
		l := a.labels.Resolve(c.Regions, c.NetworkLabel)
		t.Rows = append(t.Rows, Row{
			Cluster:    i + 1,
			Volume:     c.Key.Volume,
			Regions:    l.Regions,
			Heuristics: l.Heuristics,
			X:          c.Peak.X,
			Y:          c.Peak.Y,
			Z:          c.Peak.Z,
			Peak:       c.Peak.Value,
			Network:    l.Network,
		})
	}
	return t
}
