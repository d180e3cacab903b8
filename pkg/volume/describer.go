package volume

import (
	"context"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/agentstation/blobtable/pkg/atlas"
	"github.com/agentstation/blobtable/pkg/clusters"
	"github.com/agentstation/blobtable/pkg/errors"
	"github.com/agentstation/blobtable/pkg/logging"
)

// Describer measures how clusters overlap the label grids of an atlas.
type Describer struct {
	labels map[string]AtlasLabels
}

// NewDescriber creates a describer over label grids keyed by atlas name.
func NewDescriber(labels map[string]AtlasLabels) *Describer {
	return &Describer{labels: labels}
}

// labelCount is the number of cluster voxels carrying one label.
type labelCount struct {
	label int
	count int
}

// Describe computes one descriptor pass. Region records follow the set
// order; peak records are ordered by peak magnitude instead.
func (d *Describer) Describe(ctx context.Context, req clusters.Request) (*clusters.Descriptors, error) {
	set, ok := req.Set.(*ClusterSet)
	if !ok {
		return nil, &errors.ValidationError{Field: "set", Value: fmt.Sprintf("%T", req.Set), Message: "describer requires a *volume.ClusterSet"}
	}
	if req.Atlas == nil {
		return nil, &errors.ValidationError{Field: "atlas", Message: "cannot be nil"}
	}

	grid, err := d.grid(req.Atlas.Name, req.Tier, set.Image().Dims())
	if err != nil {
		return nil, err
	}

	ctx = logging.WithTier(ctx, req.Tier.String())
	logger := logging.FromContext(ctx)

	img := set.Image()
	voxelVolume := img.VoxelVolume()
	out := &clusters.Descriptors{
		Regions: make([]clusters.RegionRecord, 0, set.Len()),
	}
	type rankedPeak struct {
		record    clusters.PeakRecord
		magnitude float64
	}
	var peaks []rankedPeak

	for _, c := range set.Clusters() {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapCanceled("describe", err)
		}

		counts := countLabels(grid, c.Voxels)
		total := float64(len(c.Voxels))
		names := make([]string, 0, len(counts))
		coverage := 0.0
		for _, lc := range counts {
			pct := 100 * float64(lc.count) / total
			if pct < req.Atlas.Threshold {
				continue
			}
			name, err := labelName(req.Atlas, req.Tier, lc.label)
			if err != nil {
				return nil, err
			}
			if len(names) == 0 {
				coverage = pct
			}
			names = append(names, name)
		}

		rec := clusters.RegionRecord{
			ClusterID:   c.ID,
			Volume:      total * voxelVolume,
			RegionCount: len(names),
			Coverage:    coverage,
		}
		if req.Tier == atlas.TierNetwork {
			if len(names) > 0 {
				rec.ModalLabel = names[0]
			}
		} else {
			rec.Regions = names
		}
		out.Regions = append(out.Regions, rec)

		if req.Tier == atlas.TierRegion {
			peakIdx, value := peakVoxel(img, c.Voxels)
			x, y, z := img.World(peakIdx)
			peaks = append(peaks, rankedPeak{
				record: clusters.PeakRecord{
					ClusterID:   c.ID,
					Volume:      rec.Volume,
					RegionCount: rec.RegionCount,
					Coverage:    rec.Coverage,
					X:           x,
					Y:           y,
					Z:           z,
					Value:       value,
				},
				magnitude: math.Abs(value),
			})
		}

		if req.Verbose {
			logger.Info().
				Str("cluster", c.ID).
				Int("voxels", len(c.Voxels)).
				Float64("volume", rec.Volume).
				Float64("coverage", rec.Coverage).
				Strs("labels", names).
				Msg("Described cluster")
		}
	}

	if len(peaks) > 0 {
		slices.SortStableFunc(peaks, func(a, b rankedPeak) int {
			switch {
			case a.magnitude > b.magnitude:
				return -1
			case a.magnitude < b.magnitude:
				return 1
			}
			return 0
		})
		out.Peaks = make([]clusters.PeakRecord, len(peaks))
		for i, p := range peaks {
			out.Peaks[i] = p.record
		}
	}

	logger.Debug().
		Str("atlas", req.Atlas.Name).
		Int("clusters", set.Len()).
		Msg("Computed descriptor pass")

	return out, nil
}

// grid returns the label grid of an atlas at a tier.
func (d *Describer) grid(atlasName string, tier atlas.Tier, dims Dims) (*LabelImage, error) {
	labels, ok := d.labels[atlasName]
	if !ok {
		return nil, errors.NewNotFoundError("label image", atlasName)
	}
	var grid *LabelImage
	switch tier {
	case atlas.TierRegion:
		grid = labels.Region
	case atlas.TierNetwork:
		grid = labels.Network
	default:
		return nil, &errors.ValidationError{Field: "tier", Value: tier, Message: "must be region or network"}
	}
	if grid == nil {
		return nil, errors.NewNotFoundError("label image", atlasName+"/"+tier.String())
	}
	if grid.Dims() != dims {
		return nil, &errors.ValidationError{Field: "labels", Value: grid.Dims(), Message: fmt.Sprintf("label grid does not match image grid %v", dims)}
	}
	return grid, nil
}

// countLabels tallies non-background labels, largest first, ties by label.
func countLabels(grid *LabelImage, voxels []int) []labelCount {
	tally := make(map[int]int)
	for _, v := range voxels {
		if l := grid.Label(v); l > 0 {
			tally[l]++
		}
	}
	counts := make([]labelCount, 0, len(tally))
	for l, n := range tally {
		counts = append(counts, labelCount{label: l, count: n})
	}
	slices.SortFunc(counts, func(a, b labelCount) int {
		if a.count != b.count {
			return b.count - a.count
		}
		return a.label - b.label
	})
	return counts
}

func labelName(a *atlas.Atlas, tier atlas.Tier, label int) (string, error) {
	var (
		name string
		ok   bool
	)
	if tier == atlas.TierNetwork {
		name, ok = a.NetworkName(label)
	} else {
		name, ok = a.RegionName(label)
	}
	if !ok {
		return "", &errors.ValidationError{
			Field:   "labels",
			Value:   label,
			Message: fmt.Sprintf("label not defined by atlas %s at %s tier", a.Name, tier),
		}
	}
	return name, nil
}

// peakVoxel returns the voxel with the largest absolute statistic; ties go to
// the lowest index.
func peakVoxel(img *Image, voxels []int) (int, float64) {
	magnitudes := make([]float64, len(voxels))
	for i, v := range voxels {
		magnitudes[i] = math.Abs(img.Value(v))
	}
	best := voxels[floats.MaxIdx(magnitudes)]
	return best, img.Value(best)
}
