package reconciler

import "github.com/agentstation/blobtable/pkg/clusters"

// coveredRegions keeps fine records that overlapped at least one region,
// in their original order, and reports how many were dropped.
func coveredRegions(records []clusters.RegionRecord) ([]indexedRegion, int) {
	kept := make([]indexedRegion, 0, len(records))
	for i, r := range records {
		if !r.Covered() {
			continue
		}
		kept = append(kept, indexedRegion{index: i, record: r})
	}
	return kept, len(records) - len(kept)
}
