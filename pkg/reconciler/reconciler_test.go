package reconciler_test

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/blobtable/pkg/clusters"
	"github.com/agentstation/blobtable/pkg/errors"
	"github.com/agentstation/blobtable/pkg/logging"
	"github.com/agentstation/blobtable/pkg/reconciler"
)

func region(volume float64, count int, coverage float64, names ...string) clusters.RegionRecord {
	return clusters.RegionRecord{Volume: volume, RegionCount: count, Coverage: coverage, Regions: names}
}

func peak(volume float64, count int, coverage, x, y, z, value float64) clusters.PeakRecord {
	return clusters.PeakRecord{Volume: volume, RegionCount: count, Coverage: coverage, X: x, Y: y, Z: z, Value: value}
}

func network(volume float64, label string) clusters.RegionRecord {
	return clusters.RegionRecord{Volume: volume, RegionCount: 1, Coverage: 100, ModalLabel: label}
}

func newReconciler(t *testing.T, opts ...reconciler.Option) reconciler.Reconciler {
	t.Helper()
	r, err := reconciler.New(opts...)
	require.NoError(t, err)
	return r
}

func TestReconcileSingleCluster(t *testing.T) {
	in := reconciler.Input{
		Polarity: clusters.Positive,
		Regions:  []clusters.RegionRecord{region(120, 2, 75, "Ctx_A", "Ctx_B")},
		Peaks:    []clusters.PeakRecord{peak(120, 2, 75, 12, -4, 30, 4.5)},
		Networks: []clusters.RegionRecord{network(120, "Visual")},
	}

	result, err := newReconciler(t).Reconcile(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.Equal(t, 0, row.Index)
	assert.Equal(t, []string{"Ctx_A", "Ctx_B"}, row.Regions)
	assert.Equal(t, 12.0, row.Peak.X)
	assert.Equal(t, -4.0, row.Peak.Y)
	assert.Equal(t, 30.0, row.Peak.Z)
	assert.Equal(t, 4.5, row.Peak.Value)
	assert.Equal(t, "Visual", row.NetworkLabel)

	assert.Equal(t, reconciler.StrategyTypeCompositeKey, result.Metadata.Strategy)
	assert.Equal(t, clusters.Positive, result.Metadata.Polarity)
	assert.Equal(t, 1, result.Metadata.Stats.Matched)
	assert.False(t, result.HasWarnings())
	assert.False(t, result.Metadata.EndTime.Before(result.Metadata.StartTime))
}

func TestReconcileKeepsFineOrder(t *testing.T) {
	// Peaks and networks arrive in a different order than the fine table.
	in := reconciler.Input{
		Polarity: clusters.Positive,
		Regions: []clusters.RegionRecord{
			region(300, 3, 40, "Ctx_C"),
			region(120, 2, 75, "Ctx_A"),
			region(80, 1, 100, "Left_Thalamus"),
		},
		Peaks: []clusters.PeakRecord{
			peak(80, 1, 100, 10, -18, 8, 3.1),
			peak(120, 2, 75, 12, -4, 30, 4.5),
			peak(300, 3, 40, -40, 22, 10, 6.2),
		},
		Networks: []clusters.RegionRecord{
			network(120, "Visual"),
			network(80, ""),
			network(300, "Default"),
		},
	}

	result, err := newReconciler(t).Reconcile(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)

	assert.Equal(t, []float64{6.2, 4.5, 3.1}, []float64{result.Rows[0].Peak.Value, result.Rows[1].Peak.Value, result.Rows[2].Peak.Value})
	assert.Equal(t, []string{"Default", "Visual", ""}, []string{result.Rows[0].NetworkLabel, result.Rows[1].NetworkLabel, result.Rows[2].NetworkLabel})
	assert.Equal(t, []int{0, 1, 2}, []int{result.Rows[0].Index, result.Rows[1].Index, result.Rows[2].Index})
}

func TestReconcileDropsUncoveredClusters(t *testing.T) {
	in := reconciler.Input{
		Polarity: clusters.Negative,
		Regions: []clusters.RegionRecord{
			region(64, 0, 0),
			region(120, 2, 75, "Ctx_A"),
		},
		Peaks:    []clusters.PeakRecord{peak(120, 2, 75, 1, 2, 3, -4)},
		Networks: []clusters.RegionRecord{network(120, "Visual")},
	}

	result, err := newReconciler(t).Reconcile(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, 1, result.Rows[0].Index)
	assert.Equal(t, 2, result.Metadata.Stats.Input)
	assert.Equal(t, 1, result.Metadata.Stats.Dropped)
	assert.Contains(t, result.Summary(), "1 dropped")
}

func TestReconcileEmpty(t *testing.T) {
	result, err := newReconciler(t).Reconcile(context.Background(), reconciler.Input{Polarity: clusters.Positive})
	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
	assert.NotNil(t, result.Rows)
}

func TestReconcileNoMatch(t *testing.T) {
	tests := []struct {
		name   string
		in     reconciler.Input
		source string
	}{
		{
			name: "missing peak",
			in: reconciler.Input{
				Polarity: clusters.Positive,
				Regions:  []clusters.RegionRecord{region(120, 2, 75, "Ctx_A")},
				Peaks:    []clusters.PeakRecord{peak(120, 2, 74.99, 0, 0, 0, 1)},
				Networks: []clusters.RegionRecord{network(120, "Visual")},
			},
			source: "peaks",
		},
		{
			name: "missing network",
			in: reconciler.Input{
				Polarity: clusters.Positive,
				Regions:  []clusters.RegionRecord{region(120, 2, 75, "Ctx_A")},
				Peaks:    []clusters.PeakRecord{peak(120, 2, 75, 0, 0, 0, 1)},
				Networks: []clusters.RegionRecord{network(121, "Visual")},
			},
			source: "network",
		},
		{
			name: "NaN key never matches",
			in: reconciler.Input{
				Polarity: clusters.Positive,
				Regions:  []clusters.RegionRecord{region(120, 2, math.NaN(), "Ctx_A")},
				Peaks:    []clusters.PeakRecord{peak(120, 2, math.NaN(), 0, 0, 0, 1)},
				Networks: []clusters.RegionRecord{network(120, "Visual")},
			},
			source: "peaks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newReconciler(t).Reconcile(context.Background(), tt.in)
			require.Error(t, err)
			assert.Nil(t, result, "no partial results")

			var recErr *errors.ReconciliationError
			require.ErrorAs(t, err, &recErr)
			assert.Equal(t, tt.source, recErr.Source)
			assert.Equal(t, 0, recErr.Index)
			assert.Equal(t, 0, recErr.Matches)
			assert.ErrorIs(t, err, errors.ErrNoMatch)
		})
	}
}

func ambiguousInput() reconciler.Input {
	return reconciler.Input{
		Polarity: clusters.Positive,
		Regions: []clusters.RegionRecord{
			region(120, 2, 75, "Ctx_A"),
			region(120, 2, 75, "Ctx_B"),
		},
		Peaks: []clusters.PeakRecord{
			peak(120, 2, 75, 1, 1, 1, 4),
			peak(120, 2, 75, 2, 2, 2, 5),
		},
		Networks: []clusters.RegionRecord{
			network(120, "Visual"),
			network(120, "Default"),
		},
	}
}

func TestReconcileAmbiguous(t *testing.T) {
	t.Run("fails by default", func(t *testing.T) {
		_, err := newReconciler(t).Reconcile(context.Background(), ambiguousInput())
		require.Error(t, err)
		assert.True(t, errors.IsAmbiguous(err))
		assert.Contains(t, err.Error(), "ambiguous")

		var recErr *errors.ReconciliationError
		require.ErrorAs(t, err, &recErr)
		assert.Equal(t, 2, recErr.Matches)
		assert.Equal(t, "peaks", recErr.Source)
	})

	t.Run("first policy binds first candidate and warns", func(t *testing.T) {
		testLogger := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), testLogger.Logger)

		r := newReconciler(t, reconciler.WithAmbiguityPolicy(reconciler.AmbiguityFirst))
		result, err := r.Reconcile(ctx, ambiguousInput())
		require.NoError(t, err)
		require.Len(t, result.Rows, 2)

		for _, row := range result.Rows {
			assert.Equal(t, 4.0, row.Peak.Value)
			assert.Equal(t, "Visual", row.NetworkLabel)
		}
		assert.Len(t, result.Warnings, 4)
		assert.Equal(t, 4, result.Metadata.Stats.Ambiguous)
		assert.Contains(t, result.Summary(), "4 ambiguous keys")
		testLogger.AssertContains(t, "Ambiguous match")
		testLogger.AssertContains(t, `"polarity":"positive"`)
	})
}

func TestReconcileIdentity(t *testing.T) {
	// Two clusters share a composite key but carry distinct IDs.
	in := ambiguousInput()
	in.Regions[0].ClusterID, in.Regions[1].ClusterID = "pos-001", "pos-002"
	in.Peaks[0].ClusterID, in.Peaks[1].ClusterID = "pos-002", "pos-001"
	in.Networks[0].ClusterID, in.Networks[1].ClusterID = "pos-001", "pos-002"

	t.Run("auto uses identity", func(t *testing.T) {
		result, err := newReconciler(t).Reconcile(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, reconciler.StrategyTypeIdentity, result.Metadata.Strategy)
		require.Len(t, result.Rows, 2)
		assert.Equal(t, 5.0, result.Rows[0].Peak.Value)
		assert.Equal(t, 4.0, result.Rows[1].Peak.Value)
		assert.Equal(t, "Default", result.Rows[1].NetworkLabel)
		assert.Equal(t, "pos-002", result.Rows[1].ClusterID)
	})

	t.Run("composite key ignores ids", func(t *testing.T) {
		r := newReconciler(t, reconciler.WithStrategy(reconciler.NewCompositeKeyStrategy()))
		_, err := r.Reconcile(context.Background(), in)
		assert.True(t, errors.IsAmbiguous(err))
	})

	t.Run("auto falls back when an id is missing", func(t *testing.T) {
		partial := in
		partial.Peaks = append([]clusters.PeakRecord(nil), in.Peaks...)
		partial.Peaks[1].ClusterID = ""
		_, err := newReconciler(t).Reconcile(context.Background(), partial)
		assert.True(t, errors.IsAmbiguous(err))
	})

	t.Run("identity with unknown id", func(t *testing.T) {
		missing := in
		missing.Networks = []clusters.RegionRecord{in.Networks[0]}
		r := newReconciler(t, reconciler.WithStrategy(reconciler.NewIdentityStrategy()))
		_, err := r.Reconcile(context.Background(), missing)

		var recErr *errors.ReconciliationError
		require.ErrorAs(t, err, &recErr)
		assert.Equal(t, "network", recErr.Source)
		assert.Equal(t, 1, recErr.Index)
		assert.Equal(t, "id=pos-002", recErr.Key)
	})
}

func TestReconcileValidation(t *testing.T) {
	base := reconciler.Input{
		Polarity: clusters.Positive,
		Regions:  []clusters.RegionRecord{region(120, 2, 75, "Ctx_A")},
		Peaks:    []clusters.PeakRecord{peak(120, 2, 75, 0, 0, 0, 1)},
		Networks: []clusters.RegionRecord{network(120, "Visual")},
	}

	tests := []struct {
		name   string
		mutate func(in *reconciler.Input)
	}{
		{"bad polarity", func(in *reconciler.Input) { in.Polarity = "sideways" }},
		{"zero volume", func(in *reconciler.Input) { in.Regions[0].Volume = 0 }},
		{"infinite volume", func(in *reconciler.Input) { in.Peaks[0].Volume = math.Inf(1) }},
		{"negative count", func(in *reconciler.Input) { in.Networks[0].RegionCount = -1 }},
		{"coverage above 100", func(in *reconciler.Input) { in.Regions[0].Coverage = 100.5 }},
		{"NaN peak coordinate", func(in *reconciler.Input) { in.Peaks[0].Y = math.NaN() }},
		{"infinite peak value", func(in *reconciler.Input) { in.Peaks[0].Value = math.Inf(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			in.Regions = append([]clusters.RegionRecord(nil), base.Regions...)
			in.Peaks = append([]clusters.PeakRecord(nil), base.Peaks...)
			in.Networks = append([]clusters.RegionRecord(nil), base.Networks...)
			tt.mutate(&in)

			_, err := newReconciler(t).Reconcile(context.Background(), in)
			assert.True(t, errors.IsValidationError(err), "got %v", err)
		})
	}
}

func TestReconcileLogsBoundClusters(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	in := reconciler.Input{
		Polarity: clusters.Negative,
		Regions:  []clusters.RegionRecord{region(120, 2, 75, "Ctx_A", "Ctx_B"), region(40, 1, 100, "Ctx_C")},
		Peaks:    []clusters.PeakRecord{peak(40, 1, 100, 0, 0, 0, -2), peak(120, 2, 75, 0, 0, 0, -3)},
		Networks: []clusters.RegionRecord{network(40, "Visual"), network(120, "Default")},
	}

	_, err := newReconciler(t).Reconcile(ctx, in)
	require.NoError(t, err)

	var bound []string
	for _, line := range tl.Lines() {
		if strings.Contains(line, "Bound cluster") {
			bound = append(bound, line)
		}
	}
	require.Len(t, bound, 2)
	assert.Contains(t, bound[0], `"cluster":0`)
	assert.Contains(t, bound[0], `"peak_row":1`)
	assert.Contains(t, bound[0], `"polarity":"negative"`)
	assert.Contains(t, bound[1], `"cluster":1`)
	assert.Contains(t, bound[1], `"network_row":0`)
	tl.AssertNotContains(t, "Ambiguous match")
}

func TestReconcileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newReconciler(t).Reconcile(ctx, reconciler.Input{Polarity: clusters.Positive})
	assert.True(t, errors.IsCanceled(err))
}

func TestOptions(t *testing.T) {
	_, err := reconciler.New(reconciler.WithStrategy(nil))
	assert.True(t, errors.IsValidationError(err))

	_, err = reconciler.New(reconciler.WithAmbiguityPolicy("maybe"))
	assert.True(t, errors.IsValidationError(err))

	p, err := reconciler.ParseAmbiguityPolicy("FIRST")
	require.NoError(t, err)
	assert.Equal(t, reconciler.AmbiguityFirst, p)

	p, err = reconciler.ParseAmbiguityPolicy("")
	require.NoError(t, err)
	assert.Equal(t, reconciler.AmbiguityFail, p)

	_, err = reconciler.ParseAmbiguityPolicy("random")
	assert.Error(t, err)

	st, err := reconciler.ParseStrategyType("identity")
	require.NoError(t, err)
	s, err := reconciler.NewStrategy(st)
	require.NoError(t, err)
	assert.Equal(t, reconciler.StrategyTypeIdentity, s.Type())
	assert.NotEmpty(t, s.Description())
	assert.Equal(t, "Composite Key", reconciler.StrategyTypeCompositeKey.Name())

	_, err = reconciler.ParseStrategyType("fuzzy")
	assert.Error(t, err)
	_, err = reconciler.NewStrategy("fuzzy")
	assert.Error(t, err)
}

func TestNewInput(t *testing.T) {
	fine := &clusters.Descriptors{
		Regions: []clusters.RegionRecord{region(1, 1, 100, "Ctx_A")},
		Peaks:   []clusters.PeakRecord{peak(1, 1, 100, 0, 0, 0, 2)},
	}
	net := &clusters.Descriptors{Regions: []clusters.RegionRecord{network(1, "Visual")}}

	in := reconciler.NewInput(clusters.Negative, fine, net)
	assert.Equal(t, clusters.Negative, in.Polarity)
	assert.Len(t, in.Regions, 1)
	assert.Len(t, in.Peaks, 1)
	assert.Len(t, in.Networks, 1)
	assert.False(t, in.HasIdentity())

	empty := reconciler.NewInput(clusters.Positive, nil, nil)
	assert.Empty(t, empty.Regions)
}
