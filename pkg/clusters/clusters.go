// Package clusters defines the per-cluster descriptor records exchanged
// between the descriptor generator and the annotation core, together with
// the collaborator interfaces that produce them.
//
// Records carry no identifier shared across tables. The triple
// (volume, region count, coverage percent) is used as a composite match key;
// it is not a true identity and two clusters with the same triple cannot be
// told apart. Collaborators that can thread a stable ClusterID through every
// pass should do so.
package clusters

import (
	"fmt"
	"strconv"
	"strings"
)

// Polarity is the sign of the statistic values inside a cluster.
type Polarity string

// Polarity values.
const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
)

// String returns the polarity name.
func (p Polarity) String() string {
	return string(p)
}

// Valid reports whether p is one of the known polarities.
func (p Polarity) Valid() bool {
	return p == Positive || p == Negative
}

// Key is the composite match key of a descriptor record.
type Key struct {
	Volume      float64
	RegionCount int
	Coverage    float64
}

// String renders the key for errors and logs.
func (k Key) String() string {
	return "(" + formatFloat(k.Volume) + ", " + strconv.Itoa(k.RegionCount) + ", " + formatFloat(k.Coverage) + ")"
}

// RegionRecord describes one cluster's overlap with one atlas tier.
// At the fine tier Regions lists the overlapped region names in dominance
// order; at the network tier ModalLabel holds the dominant network label.
type RegionRecord struct {
	ClusterID   string   `json:"cluster_id,omitempty" yaml:"cluster_id,omitempty"`
	Volume      float64  `json:"volume" yaml:"volume"`
	RegionCount int      `json:"region_count" yaml:"region_count"`
	Coverage    float64  `json:"coverage_percent" yaml:"coverage_percent"`
	Regions     []string `json:"regions,omitempty" yaml:"regions,omitempty"`
	ModalLabel  string   `json:"modal_label,omitempty" yaml:"modal_label,omitempty"`
}

// Key returns the record's composite match key.
func (r RegionRecord) Key() Key {
	return Key{Volume: r.Volume, RegionCount: r.RegionCount, Coverage: r.Coverage}
}

// Covered reports whether the cluster overlapped at least one region.
func (r RegionRecord) Covered() bool {
	return r.RegionCount > 0
}

// PeakRecord carries a cluster's peak location (mm) and statistic value
// along with the same match fields as the fine-tier region record.
type PeakRecord struct {
	ClusterID   string  `json:"cluster_id,omitempty" yaml:"cluster_id,omitempty"`
	Volume      float64 `json:"volume" yaml:"volume"`
	RegionCount int     `json:"region_count" yaml:"region_count"`
	Coverage    float64 `json:"coverage_percent" yaml:"coverage_percent"`
	X           float64 `json:"x" yaml:"x"`
	Y           float64 `json:"y" yaml:"y"`
	Z           float64 `json:"z" yaml:"z"`
	Value       float64 `json:"value" yaml:"value"`
}

// Key returns the record's composite match key.
func (p PeakRecord) Key() Key {
	return Key{Volume: p.Volume, RegionCount: p.RegionCount, Coverage: p.Coverage}
}

// Descriptors is the output of one descriptor pass over a cluster set.
type Descriptors struct {
	Regions []RegionRecord `json:"regions" yaml:"regions"`
	Peaks   []PeakRecord   `json:"peaks,omitempty" yaml:"peaks,omitempty"`
}

// Len returns the number of region records.
func (d *Descriptors) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Regions)
}

// HasIdentity reports whether every record carries a non-empty ClusterID.
func (d *Descriptors) HasIdentity() bool {
	if d == nil {
		return false
	}
	for _, r := range d.Regions {
		if r.ClusterID == "" {
			return false
		}
	}
	for _, p := range d.Peaks {
		if p.ClusterID == "" {
			return false
		}
	}
	return true
}

// ParsePolarity parses a polarity name.
func ParsePolarity(s string) (Polarity, error) {
	switch p := Polarity(strings.ToLower(strings.TrimSpace(s))); p {
	case Positive, Negative:
		return p, nil
	default:
		return "", fmt.Errorf("unknown polarity %q", s)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
