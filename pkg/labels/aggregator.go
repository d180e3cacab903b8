package labels

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/blobtable/pkg/atlas"
	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/logging"
)

// Aggregator resolves the label columns of a row against one atlas.
type Aggregator struct {
	atlas  *atlas.Atlas
	logger *zerolog.Logger
	warned bool
}

// Labels holds the resolved label columns of one row.
type Labels struct {
	Regions    string
	Heuristics string
	Network    string
}

// NewAggregator creates an aggregator for the given atlas.
func NewAggregator(a *atlas.Atlas, logger *zerolog.Logger) *Aggregator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Aggregator{atlas: a, logger: logger}
}

// Regions returns the cleaned, deduplicated, joined region names.
func (g *Aggregator) Regions(raw []string) string {
	cleaned := make([]string, len(raw))
	for i, n := range raw {
		cleaned[i] = Clean(n)
	}
	return Join(Dedupe(cleaned))
}

// Heuristics returns the deduplicated, joined heuristic groups of the raw
// region names, or "" when the atlas has no heuristic table. Regions without
// a group are skipped.
func (g *Aggregator) Heuristics(raw []string) string {
	if g.atlas == nil || !g.atlas.SupportsHeuristics() {
		if !g.warned {
			g.warned = true
			name := ""
			if g.atlas != nil {
				name = g.atlas.Name
			}
			g.logger.Debug().Str("atlas", name).Msg("Heuristic names unavailable for atlas")
		}
		return ""
	}

	groups := make([]string, 0, len(raw))
	for _, n := range raw {
		if h, ok := g.atlas.Heuristic(n); ok {
			groups = append(groups, h)
		}
	}
	return Join(Dedupe(groups))
}

// Network returns the network label of a cluster. Clusters without a
// cortical region, or without a network-tier label, get the subcortical
// sentinel. A modal label unknown to the atlas is kept verbatim.
func (g *Aggregator) Network(raw []string, modal string) string {
	if !HasCortical(raw) || modal == "" {
		return constants.SubcorticalLabel
	}
	if g.atlas != nil {
		if n, ok := g.atlas.Network(modal); ok {
			return n
		}
	}
	g.logger.Debug().Str("label", modal).Msg("Network label not found in atlas lookup, keeping raw label")
	return modal
}

// Resolve computes all label columns for one cluster.
func (g *Aggregator) Resolve(raw []string, modal string) Labels {
	return Labels{
		Regions:    g.Regions(raw),
		Heuristics: g.Heuristics(raw),
		Network:    g.Network(raw, modal),
	}
}
