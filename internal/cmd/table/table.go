// Package table converts annotation results and atlases into rows for CLI
// table rendering.
package table

import (
	"strconv"
	"strings"

	"github.com/agentstation/blobtable/pkg/atlas"
	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/table"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Title           string
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
	Footer          []string
}

// clusterAlignment right-aligns the numeric columns of a cluster table.
var clusterAlignment = []Align{
	AlignRight, // Cluster
	AlignRight, // Volume
	AlignLeft,  // Regions
	AlignLeft,  // Heuristics
	AlignRight, // X
	AlignRight, // Y
	AlignRight, // Z
	AlignRight, // Max <type>
	AlignLeft,  // Network
}

// ClustersToTableData converts an annotated table to table format. Empty
// text cells are shown as "-".
func ClustersToTableData(t *table.Table) Data {
	rows := make([][]string, 0, t.Len())
	for _, record := range t.Records() {
		for i, cell := range record {
			if cell == "" {
				record[i] = constants.EmptyCell
			}
		}
		rows = append(rows, record)
	}

	return Data{
		Title:           Title(t),
		Headers:         t.Columns(),
		Rows:            rows,
		ColumnAlignment: clusterAlignment,
	}
}

// Title returns the caption of a cluster table, e.g. "Positive clusters (3)".
func Title(t *table.Table) string {
	name := t.Polarity.String()
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return name + " clusters (" + strconv.Itoa(t.Len()) + ")"
}

// AtlasesToTableData converts a list of atlases to table format.
func AtlasesToTableData(atlases []*atlas.Atlas) Data {
	rows := make([][]string, 0, len(atlases))
	for _, a := range atlases {
		heuristics := "no"
		if a.SupportsHeuristics() {
			heuristics = "yes"
		}
		canonical := ""
		if a.Canonical {
			canonical = "*"
		}
		description := a.Description
		if description == "" {
			description = constants.EmptyCell
		}
		rows = append(rows, []string{
			a.Name + canonical,
			strconv.Itoa(len(a.Regions)),
			strconv.Itoa(len(a.Networks)),
			heuristics,
			description,
		})
	}

	return Data{
		Headers:         []string{"Name", "Regions", "Networks", "Heuristics", "Description"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight, AlignLeft, AlignLeft},
		Footer:          []string{"* canonical atlas"},
	}
}

// RegionsToTableData lists the regions of one atlas in index order.
func RegionsToTableData(a *atlas.Atlas) Data {
	rows := make([][]string, 0, len(a.Regions))
	for _, name := range a.RegionNames() {
		r, _ := a.Region(name)
		rows = append(rows, []string{
			strconv.Itoa(r.Index),
			r.Name,
			orEmpty(r.Network),
			orEmpty(r.Heuristic),
		})
	}

	return Data{
		Title:           a.Name,
		Headers:         []string{"Index", "Region", "Network", "Heuristic"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft, AlignLeft},
	}
}

func orEmpty(s string) string {
	if s == "" {
		return constants.EmptyCell
	}
	return s
}
