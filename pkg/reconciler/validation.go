package reconciler

import (
	"fmt"
	"math"

	"github.com/agentstation/blobtable/pkg/clusters"
	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/errors"
)

// validateInput rejects tables that cannot describe real clusters.
// NaN key fields are left alone: they never match and surface as reconciliation failures.
func validateInput(in Input) error {
	if !in.Polarity.Valid() {
		return &errors.ValidationError{Field: "polarity", Value: in.Polarity, Message: "must be positive or negative"}
	}
	for i, r := range in.Regions {
		if err := validateFields("regions", i, r.Volume, r.RegionCount, r.Coverage); err != nil {
			return err
		}
	}
	for i, p := range in.Peaks {
		if err := validateFields("peaks", i, p.Volume, p.RegionCount, p.Coverage); err != nil {
			return err
		}
		if err := validatePeak(i, p); err != nil {
			return err
		}
	}
	for i, n := range in.Networks {
		if err := validateFields("networks", i, n.Volume, n.RegionCount, n.Coverage); err != nil {
			return err
		}
	}
	return nil
}

func validateFields(table string, row int, volume float64, count int, coverage float64) error {
	switch {
	case volume <= 0:
		return &errors.ValidationError{Field: fmt.Sprintf("%s[%d].volume", table, row), Value: volume, Message: "must be > 0"}
	case math.IsInf(volume, 0):
		return &errors.ValidationError{Field: fmt.Sprintf("%s[%d].volume", table, row), Value: volume, Message: "must be finite"}
	case count < 0:
		return &errors.ValidationError{Field: fmt.Sprintf("%s[%d].region_count", table, row), Value: count, Message: "must be >= 0"}
	case coverage < 0 || coverage > constants.MaxCoveragePercent:
		return &errors.ValidationError{Field: fmt.Sprintf("%s[%d].coverage_percent", table, row), Value: coverage, Message: "must be within [0, 100]"}
	}
	return nil
}

// validatePeak rejects peaks whose coordinate or value would be emitted as NaN or Inf.
func validatePeak(row int, p clusters.PeakRecord) error {
	for _, f := range []struct {
		name  string
		value float64
	}{{"x", p.X}, {"y", p.Y}, {"z", p.Z}, {"value", p.Value}} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return errors.NewValidationError(fmt.Sprintf("peaks[%d].%s", row, f.name), f.value, "must be finite")
		}
	}
	return nil
}
