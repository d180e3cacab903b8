package reconciler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/blobtable/pkg/clusters"
)

// StrategyType represents the type of matching strategy.
type StrategyType string

// String returns the string representation of a strategy type.
func (s StrategyType) String() string {
	return string(s)
}

// Name returns the display name of the strategy type.
func (s StrategyType) Name() string {
	words := strings.Split(s.String(), "-")
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

const (
	// StrategyTypeCompositeKey matches peaks by (volume, region count, coverage) and networks by volume.
	StrategyTypeCompositeKey StrategyType = "composite-key"
	// StrategyTypeIdentity matches every table by cluster ID.
	StrategyTypeIdentity StrategyType = "identity"
	// StrategyTypeAuto uses identity when every record carries an ID, else the composite key.
	StrategyTypeAuto StrategyType = "auto"
)

// ParseStrategyType parses a strategy name.
func ParseStrategyType(s string) (StrategyType, error) {
	switch t := StrategyType(strings.ToLower(strings.TrimSpace(s))); t {
	case StrategyTypeCompositeKey, StrategyTypeIdentity, StrategyTypeAuto:
		return t, nil
	case "":
		return StrategyTypeAuto, nil
	default:
		return "", fmt.Errorf("unknown reconciliation strategy %q", s)
	}
}

// Match is the set of candidate rows found for one fine record.
type Match struct {
	// Key is the rendered lookup key, for errors and logs.
	Key string
	// Candidates are row indexes in the searched table, in table order.
	Candidates []int
}

// Matcher finds candidate rows for fine records. It is built once per Input.
type Matcher interface {
	Type() StrategyType
	Peaks(fine clusters.RegionRecord) Match
	Network(fine clusters.RegionRecord) Match
}

// Strategy defines how fine records are matched to the other tables.
type Strategy interface {
	// Type returns the strategy type
	Type() StrategyType

	// Description returns a human-readable description
	Description() string

	// Index builds the lookups for one input
	Index(in Input) Matcher
}

// baseStrategy provides common strategy functionality.
type baseStrategy struct {
	typ         StrategyType
	description string
}

// Type returns the strategy type.
func (s *baseStrategy) Type() StrategyType {
	return s.typ
}

// Description returns a human-readable description.
func (s *baseStrategy) Description() string {
	return s.description
}

// CompositeKeyStrategy matches on numeric descriptor fields.
type CompositeKeyStrategy struct {
	baseStrategy
}

// NewCompositeKeyStrategy creates a composite-key strategy.
func NewCompositeKeyStrategy() Strategy {
	return &CompositeKeyStrategy{
		baseStrategy: baseStrategy{
			typ:         StrategyTypeCompositeKey,
			description: "Binds peaks by exact (volume, region count, coverage) and networks by exact volume",
		},
	}
}

// Index builds key lookups over the peak and network tables.
func (s *CompositeKeyStrategy) Index(in Input) Matcher {
	m := &compositeMatcher{
		peaks:    make(map[clusters.Key][]int, len(in.Peaks)),
		networks: make(map[float64][]int, len(in.Networks)),
	}
	for i, p := range in.Peaks {
		m.peaks[p.Key()] = append(m.peaks[p.Key()], i)
	}
	for i, n := range in.Networks {
		m.networks[n.Volume] = append(m.networks[n.Volume], i)
	}
	return m
}

type compositeMatcher struct {
	peaks    map[clusters.Key][]int
	networks map[float64][]int
}

func (m *compositeMatcher) Type() StrategyType { return StrategyTypeCompositeKey }

func (m *compositeMatcher) Peaks(fine clusters.RegionRecord) Match {
	// NaN never equals itself, so a NaN key finds nothing.
	return Match{Key: fine.Key().String(), Candidates: m.peaks[fine.Key()]}
}

func (m *compositeMatcher) Network(fine clusters.RegionRecord) Match {
	return Match{Key: "(" + formatVolume(fine.Volume) + ")", Candidates: m.networks[fine.Volume]}
}

// IdentityStrategy matches on cluster IDs threaded through every pass.
type IdentityStrategy struct {
	baseStrategy
}

// NewIdentityStrategy creates an identity strategy.
func NewIdentityStrategy() Strategy {
	return &IdentityStrategy{
		baseStrategy: baseStrategy{
			typ:         StrategyTypeIdentity,
			description: "Binds every table by cluster ID",
		},
	}
}

// Index builds ID lookups over the peak and network tables.
func (s *IdentityStrategy) Index(in Input) Matcher {
	m := &identityMatcher{
		peaks:    make(map[string][]int, len(in.Peaks)),
		networks: make(map[string][]int, len(in.Networks)),
	}
	for i, p := range in.Peaks {
		if p.ClusterID != "" {
			m.peaks[p.ClusterID] = append(m.peaks[p.ClusterID], i)
		}
	}
	for i, n := range in.Networks {
		if n.ClusterID != "" {
			m.networks[n.ClusterID] = append(m.networks[n.ClusterID], i)
		}
	}
	return m
}

type identityMatcher struct {
	peaks    map[string][]int
	networks map[string][]int
}

func (m *identityMatcher) Type() StrategyType { return StrategyTypeIdentity }

func (m *identityMatcher) Peaks(fine clusters.RegionRecord) Match {
	return Match{Key: "id=" + fine.ClusterID, Candidates: m.peaks[fine.ClusterID]}
}

func (m *identityMatcher) Network(fine clusters.RegionRecord) Match {
	return Match{Key: "id=" + fine.ClusterID, Candidates: m.networks[fine.ClusterID]}
}

// AutoStrategy picks identity matching when it is available.
type AutoStrategy struct {
	baseStrategy
	identity  Strategy
	composite Strategy
}

// NewAutoStrategy creates the default strategy.
func NewAutoStrategy() Strategy {
	return &AutoStrategy{
		baseStrategy: baseStrategy{
			typ:         StrategyTypeAuto,
			description: "Binds by cluster ID when every record has one, otherwise by composite key",
		},
		identity:  NewIdentityStrategy(),
		composite: NewCompositeKeyStrategy(),
	}
}

// Index delegates to the identity or composite-key strategy.
func (s *AutoStrategy) Index(in Input) Matcher {
	if in.HasIdentity() && len(in.Regions) > 0 {
		return s.identity.Index(in)
	}
	return s.composite.Index(in)
}

// NewStrategy returns the strategy for a type.
func NewStrategy(t StrategyType) (Strategy, error) {
	switch t {
	case StrategyTypeCompositeKey:
		return NewCompositeKeyStrategy(), nil
	case StrategyTypeIdentity:
		return NewIdentityStrategy(), nil
	case StrategyTypeAuto, "":
		return NewAutoStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown reconciliation strategy %q", t)
	}
}

func formatVolume(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
