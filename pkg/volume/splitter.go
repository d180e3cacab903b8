package volume

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/agentstation/blobtable/pkg/clusters"
	"github.com/agentstation/blobtable/pkg/errors"
	"github.com/agentstation/blobtable/pkg/logging"
)

// Connectivity is the voxel neighbourhood used to join voxels into clusters.
type Connectivity int

// Neighbourhoods: faces, faces+edges, faces+edges+corners.
const (
	Faces    Connectivity = 6
	Edges    Connectivity = 18
	Vertices Connectivity = 26
)

// Valid reports whether c is a supported neighbourhood.
func (c Connectivity) Valid() bool {
	return c == Faces || c == Edges || c == Vertices
}

// offsets returns the neighbour displacements of the neighbourhood.
func (c Connectivity) offsets() [][3]int {
	var out [][3]int
	for dk := -1; dk <= 1; dk++ {
		for dj := -1; dj <= 1; dj++ {
			for di := -1; di <= 1; di++ {
				n := abs(di) + abs(dj) + abs(dk)
				if n == 0 {
					continue
				}
				if (c == Faces && n > 1) || (c == Edges && n > 2) {
					continue
				}
				out = append(out, [3]int{di, dj, dk})
			}
		}
	}
	return out
}

// Cluster is one connected component of same-sign voxels.
type Cluster struct {
	ID       string
	Polarity clusters.Polarity
	// Voxels are flat indexes in ascending order.
	Voxels []int
}

// ClusterSet is the set of clusters of one polarity found in an image.
type ClusterSet struct {
	polarity clusters.Polarity
	image    *Image
	clusters []*Cluster
}

// Polarity returns the sign of the set.
func (s *ClusterSet) Polarity() clusters.Polarity { return s.polarity }

// Len returns the number of clusters.
func (s *ClusterSet) Len() int { return len(s.clusters) }

// Clusters returns the clusters in set order.
func (s *ClusterSet) Clusters() []*Cluster { return s.clusters }

// Image returns the image the clusters were extracted from.
func (s *ClusterSet) Image() *Image { return s.image }

// Splitter extracts connected components from an Image.
type Splitter struct {
	connectivity Connectivity
	minExtent    int
}

// SplitterOption configures a Splitter.
type SplitterOption func(*Splitter) error

// WithConnectivity sets the voxel neighbourhood.
func WithConnectivity(c Connectivity) SplitterOption {
	return func(s *Splitter) error {
		if !c.Valid() {
			return &errors.ValidationError{Field: "connectivity", Value: int(c), Message: "must be 6, 18 or 26"}
		}
		s.connectivity = c
		return nil
	}
}

// WithMinExtent drops clusters with fewer voxels than n.
func WithMinExtent(n int) SplitterOption {
	return func(s *Splitter) error {
		if n < 0 {
			return &errors.ValidationError{Field: "min_extent", Value: n, Message: "must be >= 0"}
		}
		s.minExtent = n
		return nil
	}
}

// NewSplitter creates a splitter using 26-connectivity by default.
func NewSplitter(opts ...SplitterOption) (*Splitter, error) {
	s := &Splitter{connectivity: Vertices}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Split partitions the image into strictly positive and strictly negative
// clusters. Clusters are ordered by size, then peak magnitude, then position,
// and get IDs like "pos-001" in that order.
func (s *Splitter) Split(ctx context.Context, img clusters.Image) (clusters.Set, clusters.Set, error) {
	vol, ok := img.(*Image)
	if !ok {
		return nil, nil, &errors.ValidationError{Field: "image", Value: fmt.Sprintf("%T", img), Message: "splitter requires a *volume.Image"}
	}

	pos, err := s.components(ctx, vol, clusters.Positive)
	if err != nil {
		return nil, nil, err
	}
	neg, err := s.components(ctx, vol, clusters.Negative)
	if err != nil {
		return nil, nil, err
	}

	logging.FromContext(ctx).Debug().
		Int("positive", pos.Len()).
		Int("negative", neg.Len()).
		Int("connectivity", int(s.connectivity)).
		Msg("Split image into clusters")

	return pos, neg, nil
}

func (s *Splitter) components(ctx context.Context, img *Image, polarity clusters.Polarity) (*ClusterSet, error) {
	inside := func(v float64) bool { return v > 0 }
	if polarity == clusters.Negative {
		inside = func(v float64) bool { return v < 0 }
	}

	dims := img.Dims()
	offsets := s.connectivity.offsets()
	visited := make([]bool, dims.Len())
	var found []*Cluster

	for start := 0; start < dims.Len(); start++ {
		if visited[start] || !inside(img.Value(start)) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapCanceled("split", err)
		}

		// Iterative flood fill; the stack holds flat indexes.
		var voxels []int
		stack := []int{start}
		visited[start] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			voxels = append(voxels, cur)

			i, j, k := dims.Coords(cur)
			for _, o := range offsets {
				ni, nj, nk := i+o[0], j+o[1], k+o[2]
				if !dims.Contains(ni, nj, nk) {
					continue
				}
				n := dims.Index(ni, nj, nk)
				if visited[n] || !inside(img.Value(n)) {
					continue
				}
				visited[n] = true
				stack = append(stack, n)
			}
		}

		if len(voxels) < s.minExtent {
			continue
		}
		slices.Sort(voxels)
		found = append(found, &Cluster{Polarity: polarity, Voxels: voxels})
	}

	slices.SortStableFunc(found, func(a, b *Cluster) int {
		if len(a.Voxels) != len(b.Voxels) {
			return len(b.Voxels) - len(a.Voxels)
		}
		pa, pb := peakMagnitude(img, a), peakMagnitude(img, b)
		switch {
		case pa > pb:
			return -1
		case pa < pb:
			return 1
		}
		return a.Voxels[0] - b.Voxels[0]
	})

	prefix := "pos"
	if polarity == clusters.Negative {
		prefix = "neg"
	}
	for i, c := range found {
		c.ID = fmt.Sprintf("%s-%03d", prefix, i+1)
	}

	return &ClusterSet{polarity: polarity, image: img, clusters: found}, nil
}

func peakMagnitude(img *Image, c *Cluster) float64 {
	peak := 0.0
	for _, v := range c.Voxels {
		peak = math.Max(peak, math.Abs(img.Value(v)))
	}
	return peak
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
