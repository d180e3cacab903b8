package clusters

import (
	"context"

	"github.com/agentstation/blobtable/pkg/atlas"
)

// Image is a scored statistical volume as seen by the annotation pipeline.
type Image interface {
	// Frames returns the number of volumes in the image; only 1 is accepted.
	Frames() int
	// StatType returns the declared statistic type (e.g. "T", "Z"), or "".
	StatType() string
}

// Set is an opaque collection of clusters of one polarity.
type Set interface {
	Polarity() Polarity
	Len() int
}

// Splitter partitions an image into positive and negative cluster sets.
type Splitter interface {
	Split(ctx context.Context, img Image) (positive, negative Set, err error)
}

// Request asks a Describer for one descriptor pass.
type Request struct {
	Set   Set
	Atlas *atlas.Atlas
	Tier  atlas.Tier
	// Verbose lets the describer report per-cluster details.
	Verbose bool
}

// Describer computes descriptor records for a cluster set against one atlas tier.
// At the region tier it returns both region and peak records; at the network
// tier only region records with ModalLabel set are required.
type Describer interface {
	Describe(ctx context.Context, req Request) (*Descriptors, error)
}
