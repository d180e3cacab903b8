package reconcile_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/blobtable/cmd/blobtable/cmd/reconcile"
	"github.com/agentstation/blobtable/internal/cmd/application"
	"github.com/agentstation/blobtable/pkg/errors"
	"github.com/agentstation/blobtable/pkg/logging"
)

// Peaks are listed in a different order than the fine records.
const descriptors = `
stat_type: Z
positive:
  fine:
    regions:
      - {volume: 24, region_count: 2, coverage_percent: 66.5, regions: [Ctx_V1, Ctx_V2]}
      - {volume: 16, region_count: 1, coverage_percent: 50, regions: [Left_Thalamus]}
    peaks:
      - {volume: 16, region_count: 1, coverage_percent: 50, x: -4, y: -16, z: 4, value: 6}
      - {volume: 24, region_count: 2, coverage_percent: 66.5, x: -8, y: -20, z: 0, value: 5}
  network:
    regions:
      - {volume: 16, region_count: 0, coverage_percent: 0}
      - {volume: 24, region_count: 1, coverage_percent: 100, modal_label: Visual}
`

const negative = `
negative:
  fine:
    regions:
      - {volume: 8, region_count: 1, coverage_percent: 100, regions: [Ctx_V2]}
    peaks:
      - {volume: 8, region_count: 1, coverage_percent: 100, x: 2, y: 0, z: 0, value: -3}
  network:
    regions:
      - {volume: 8, region_count: 1, coverage_percent: 100, modal_label: Visual}
`

type yamlTables struct {
	StatColumn string `yaml:"stat_column"`
	Positive   struct {
		Rows []map[string]any `yaml:"rows"`
	} `yaml:"positive"`
	Negative *struct {
		Rows []map[string]any `yaml:"rows"`
	} `yaml:"negative"`
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "descriptors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (*yamlTables, error) {
	t.Helper()
	cmd := reconcile.NewCommand(&application.Mock{OutputFormatFunc: func() string { return "yaml" }})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	var got yamlTables
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	return &got, nil
}

func TestReconcileCommand(t *testing.T) {
	logging.DisableLoggingForTest(t)

	got, err := run(t, "--input", writeInput(t, descriptors))
	require.NoError(t, err)

	assert.Equal(t, "Max z", got.StatColumn)
	require.Len(t, got.Positive.Rows, 2)

	first := got.Positive.Rows[0]
	assert.Equal(t, "V1, V2", first["atlas_region_names"])
	assert.Equal(t, "Visual", first["network"])
	assert.EqualValues(t, -8, first["x"])
	assert.EqualValues(t, 5, first["peak_value"])

	second := got.Positive.Rows[1]
	assert.Equal(t, "Left Thalamus", second["atlas_region_names"])
	assert.Equal(t, "Subcortical", second["network"])
	assert.EqualValues(t, 6, second["peak_value"])

	assert.Nil(t, got.Negative)
}

func TestReconcileCommandNegativeSection(t *testing.T) {
	logging.DisableLoggingForTest(t)
	path := writeInput(t, descriptors+negative)

	got, err := run(t, "--input", path)
	require.NoError(t, err)
	require.NotNil(t, got.Negative)
	require.Len(t, got.Negative.Rows, 1)
	assert.EqualValues(t, 1, got.Negative.Rows[0]["cluster"])
	assert.EqualValues(t, -3, got.Negative.Rows[0]["peak_value"])

	got, err = run(t, "--input", path, "--negative=false")
	require.NoError(t, err)
	assert.Nil(t, got.Negative)
}

func TestReconcileCommandMissingPeak(t *testing.T) {
	logging.DisableLoggingForTest(t)
	input := `
positive:
  fine:
    regions:
      - {volume: 24, region_count: 2, coverage_percent: 66.5, regions: [Ctx_V1]}
    peaks:
      - {volume: 24, region_count: 2, coverage_percent: 60, x: 0, y: 0, z: 0, value: 1}
  network:
    regions:
      - {volume: 24, region_count: 1, coverage_percent: 100, modal_label: Visual}
`
	_, err := run(t, "--input", writeInput(t, input))
	require.Error(t, err)
	assert.True(t, errors.IsReconciliationError(err))
	assert.ErrorIs(t, err, errors.ErrNoMatch)
}

func TestParseInput(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		in, err := reconcile.ParseInput([]byte(descriptors), "descriptors.yaml")
		require.NoError(t, err)
		assert.Equal(t, "Z", in.StatType)
		assert.Equal(t, 2, in.Positive.Fine.Len())
		assert.Nil(t, in.Negative)
	})

	t.Run("positive required", func(t *testing.T) {
		_, err := reconcile.ParseInput([]byte("stat_type: T\n"), "empty.yaml")
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := reconcile.ParseInput([]byte("positive: {}\nextra: 1\n"), "bad.yaml")
		var parseErr *errors.ParseError
		assert.ErrorAs(t, err, &parseErr)
	})
}
