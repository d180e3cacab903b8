// Package table assembles reconciled clusters into the fixed-schema
// annotated table of one polarity.
package table

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/blobtable/pkg/clusters"
	"github.com/agentstation/blobtable/pkg/constants"
)

// Column headers, in output order. The statistic column is named per image.
const (
	ColumnCluster    = "Cluster"
	ColumnVolume     = "Volume mm³"
	ColumnRegions    = "Atlas region names"
	ColumnHeuristics = "Heuristic names"
	ColumnX          = "X"
	ColumnY          = "Y"
	ColumnZ          = "Z"
	ColumnNetwork    = "Network"
)

// Row is one annotated cluster.
type Row struct {
	Cluster    int     `json:"cluster" yaml:"cluster"`
	Volume     float64 `json:"volume_mm3" yaml:"volume_mm3"`
	Regions    string  `json:"atlas_region_names" yaml:"atlas_region_names"`
	Heuristics string  `json:"heuristic_names" yaml:"heuristic_names"`
	X          float64 `json:"x" yaml:"x"`
	Y          float64 `json:"y" yaml:"y"`
	Z          float64 `json:"z" yaml:"z"`
	Peak       float64 `json:"peak_value" yaml:"peak_value"`
	Network    string  `json:"network" yaml:"network"`
}

// Table is the annotated table of one polarity.
type Table struct {
	Polarity   clusters.Polarity `json:"polarity" yaml:"polarity"`
	StatColumn string            `json:"stat_column" yaml:"stat_column"`
	Rows       []Row             `json:"rows" yaml:"rows"`
}

// StatColumn returns the header of the statistic column for a statistic type.
func StatColumn(statType string) string {
	statType = strings.TrimSpace(statType)
	if statType == "" {
		statType = constants.DefaultStatType
	}
	return "Max " + cases.Lower(language.Und).String(statType)
}

// Columns returns the table headers in output order.
func (t *Table) Columns() []string {
	return []string{
		ColumnCluster,
		ColumnVolume,
		ColumnRegions,
		ColumnHeuristics,
		ColumnX,
		ColumnY,
		ColumnZ,
		t.StatColumn,
		ColumnNetwork,
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool {
	return t.Len() == 0
}

// Records renders rows as strings in column order. Numbers use the shortest
// representation that round-trips, so identical tables render identically.
func (t *Table) Records() [][]string {
	if t == nil {
		return nil
	}
	records := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		records = append(records, r.Strings())
	}
	return records
}

// Strings renders the row in column order.
func (r Row) Strings() []string {
	return []string{
		strconv.Itoa(r.Cluster),
		FormatNumber(r.Volume),
		r.Regions,
		r.Heuristics,
		FormatNumber(r.X),
		FormatNumber(r.Y),
		FormatNumber(r.Z),
		FormatNumber(r.Peak),
		r.Network,
	}
}

// FormatNumber renders a float in its shortest exact decimal form.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
