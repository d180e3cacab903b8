package output

import (
	"io"

	"github.com/agentstation/blobtable"
	"github.com/agentstation/blobtable/internal/cmd/table"
	"github.com/agentstation/blobtable/pkg/atlas"
	clustertable "github.com/agentstation/blobtable/pkg/table"
)

// Tables writes annotation tables. The table format renders each polarity
// as its own table with the legend and any warnings underneath; JSON and
// YAML serialize the tables as a whole.
func Tables(w io.Writer, format Format, t *blobtable.Tables) error {
	if format != FormatTable && format != "" {
		return NewFormatter(format).Format(w, t)
	}

	var out []Data
	t.Each(func(tbl *clustertable.Table) {
		out = append(out, table.ClustersToTableData(tbl))
	})
	if len(out) > 0 {
		last := &out[len(out)-1]
		last.Footer = append(last.Footer, t.Legend...)
		for _, warning := range t.Warnings {
			last.Footer = append(last.Footer, "warning: "+warning)
		}
	}
	return NewFormatter(FormatTable).Format(w, out)
}

// Atlases writes a list of atlases.
func Atlases(w io.Writer, format Format, atlases []*atlas.Atlas) error {
	if format != FormatTable && format != "" {
		return NewFormatter(format).Format(w, atlases)
	}
	return NewFormatter(FormatTable).Format(w, table.AtlasesToTableData(atlases))
}

// Atlas writes the regions of one atlas.
func Atlas(w io.Writer, format Format, a *atlas.Atlas) error {
	if format != FormatTable && format != "" {
		return NewFormatter(format).Format(w, a)
	}
	return NewFormatter(FormatTable).Format(w, table.RegionsToTableData(a))
}
