// Package atlas holds already-loaded atlas lookup tables: the fine region
// names of a labeling scheme, the region to network mapping, and the optional
// heuristic grouping that only the canonical atlas provides.
//
// Lookups are built once when an atlas is parsed and are read-only afterwards,
// so a single *Atlas can be shared between the positive and negative passes.
package atlas

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/errors"
)

// Tier selects which labeling resolution a descriptor pass uses.
type Tier string

// Tier values.
const (
	TierRegion  Tier = "region"
	TierNetwork Tier = "network"
)

// String returns the tier name.
func (t Tier) String() string {
	return string(t)
}

// Region is one labeled parcel of the fine tier.
type Region struct {
	Index     int    `yaml:"index" json:"index"`
	Name      string `yaml:"name" json:"name"`
	Network   string `yaml:"network,omitempty" json:"network,omitempty"`
	Heuristic string `yaml:"heuristic,omitempty" json:"heuristic,omitempty"`
}

// Cortical reports whether the region carries the cortical marker.
func (r Region) Cortical() bool {
	return strings.HasPrefix(r.Name, constants.CorticalPrefix)
}

// Atlas is a loaded labeling scheme plus its coverage threshold.
type Atlas struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Canonical   bool     `yaml:"canonical" json:"canonical"`
	Networks    []string `yaml:"networks" json:"networks"`
	Regions     []Region `yaml:"regions" json:"regions"`

	// Threshold is the minimum percent of a cluster a region must cover.
	Threshold float64 `yaml:"threshold,omitempty" json:"threshold"`

	byIndex    map[int]int
	byName     map[string]int
	networkSet map[string]struct{}
	heuristics int
}

// build validates the atlas and indexes its lookup tables.
func (a *Atlas) build() error {
	if strings.TrimSpace(a.Name) == "" {
		return &errors.ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if err := validateThreshold(a.Threshold); err != nil {
		return err
	}

	a.networkSet = make(map[string]struct{}, len(a.Networks))
	for _, n := range a.Networks {
		if n == "" {
			return &errors.ValidationError{Field: "networks", Message: "network names cannot be empty"}
		}
		if _, dup := a.networkSet[n]; dup {
			return &errors.ValidationError{Field: "networks", Value: n, Message: "duplicate network"}
		}
		a.networkSet[n] = struct{}{}
	}

	a.byIndex = make(map[int]int, len(a.Regions))
	a.byName = make(map[string]int, len(a.Regions))
	a.heuristics = 0
	for i, r := range a.Regions {
		switch {
		case r.Index <= 0:
			return &errors.ValidationError{Field: "regions.index", Value: r.Index, Message: fmt.Sprintf("region %q must have a positive index", r.Name)}
		case r.Name == "":
			return &errors.ValidationError{Field: "regions.name", Value: r.Index, Message: "cannot be empty"}
		case len(r.Name) > constants.MaxRegionNameLength:
			return &errors.ValidationError{Field: "regions.name", Value: r.Index, Message: "name too long"}
		}
		if _, dup := a.byIndex[r.Index]; dup {
			return &errors.ValidationError{Field: "regions.index", Value: r.Index, Message: "duplicate index"}
		}
		if _, dup := a.byName[r.Name]; dup {
			return &errors.ValidationError{Field: "regions.name", Value: r.Name, Message: "duplicate name"}
		}
		if r.Network != "" {
			if _, ok := a.networkSet[r.Network]; !ok {
				return &errors.ValidationError{Field: "regions.network", Value: r.Network, Message: fmt.Sprintf("region %q references an undeclared network", r.Name)}
			}
		}
		if r.Heuristic != "" {
			a.heuristics++
		}
		a.byIndex[r.Index] = i
		a.byName[r.Name] = i
	}
	return nil
}

// RegionName returns the fine region name for a label index.
func (a *Atlas) RegionName(index int) (string, bool) {
	i, ok := a.byIndex[index]
	if !ok {
		return "", false
	}
	return a.Regions[i].Name, true
}

// NetworkName returns the network name for a 1-based network label index.
func (a *Atlas) NetworkName(index int) (string, bool) {
	if index <= 0 || index > len(a.Networks) {
		return "", false
	}
	return a.Networks[index-1], true
}

// Region returns the region with the given raw name.
func (a *Atlas) Region(name string) (Region, bool) {
	i, ok := a.byName[name]
	if !ok {
		return Region{}, false
	}
	return a.Regions[i], true
}

// Network resolves a network-tier label to a network name. The label may be a
// fine region name (mapped through the region's network) or already a network
// name of this atlas.
func (a *Atlas) Network(label string) (string, bool) {
	if _, ok := a.networkSet[label]; ok {
		return label, true
	}
	if r, ok := a.Region(label); ok && r.Network != "" {
		return r.Network, true
	}
	return "", false
}

// Heuristic returns the heuristic group of a raw region name.
func (a *Atlas) Heuristic(name string) (string, bool) {
	r, ok := a.Region(name)
	if !ok || r.Heuristic == "" {
		return "", false
	}
	return r.Heuristic, true
}

// SupportsHeuristics reports whether heuristic names can be produced.
// Only the canonical atlas carries a heuristic table.
func (a *Atlas) SupportsHeuristics() bool {
	return a.Canonical && a.heuristics > 0
}

// RegionNames returns the fine region names in index order.
func (a *Atlas) RegionNames() []string {
	regions := slices.Clone(a.Regions)
	slices.SortFunc(regions, func(x, y Region) int { return x.Index - y.Index })
	names := make([]string, len(regions))
	for i, r := range regions {
		names[i] = r.Name
	}
	return names
}

// WithThreshold returns a copy of the atlas using the given coverage threshold.
// The lookup tables are shared with the receiver.
func (a *Atlas) WithThreshold(threshold float64) (*Atlas, error) {
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}
	cp := *a
	cp.Threshold = threshold
	return &cp, nil
}

func validateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 {
		return &errors.ValidationError{
			Field:   "coverage_threshold",
			Value:   threshold,
			Message: "must be a finite percentage >= 0",
		}
	}
	return nil
}
