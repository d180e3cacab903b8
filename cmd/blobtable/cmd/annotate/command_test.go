package annotate_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/blobtable/cmd/blobtable/cmd/annotate"
	"github.com/agentstation/blobtable/internal/cmd/application"
	"github.com/agentstation/blobtable/pkg/errors"
	"github.com/agentstation/blobtable/pkg/logging"
)

const scanBundle = `
stat_type: T
dims: [4, 1, 1]
data: [3, 5, 0, -2]
atlases:
  glasser:
    region:
      data: [1, 20, 0, 2]
    network:
      data: [1, 0, 0, 1]
`

type jsonTables struct {
	Atlas      string `json:"atlas"`
	StatColumn string `json:"stat_column"`
	Positive   *struct {
		Rows []map[string]any `json:"rows"`
	} `json:"positive"`
	Negative *struct {
		Rows []map[string]any `json:"rows"`
	} `json:"negative"`
	Legend []string `json:"legend"`
}

func writeScan(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scanBundle), 0o644))
	return path
}

func run(t *testing.T, app *application.Mock, args ...string) (string, error) {
	t.Helper()
	cmd := annotate.NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func jsonApp() *application.Mock {
	return &application.Mock{OutputFormatFunc: func() string { return "json" }}
}

func TestAnnotateCommand(t *testing.T) {
	logging.DisableLoggingForTest(t)
	scan := writeScan(t)

	out, err := run(t, jsonApp(), "--input", scan, "--negative", "--legend")
	require.NoError(t, err)

	var got jsonTables
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "glasser", got.Atlas)
	assert.Equal(t, "Max t", got.StatColumn)
	require.NotNil(t, got.Positive)
	require.Len(t, got.Positive.Rows, 1)
	assert.Equal(t, "V1, Left Thalamus", got.Positive.Rows[0]["atlas_region_names"])
	assert.Equal(t, "Visual", got.Positive.Rows[0]["network"])
	require.NotNil(t, got.Negative)
	require.Len(t, got.Negative.Rows, 1)
	assert.Equal(t, "V2", got.Negative.Rows[0]["atlas_region_names"])
	assert.NotEmpty(t, got.Legend)
}

func TestAnnotateCommandPositiveOnly(t *testing.T) {
	logging.DisableLoggingForTest(t)

	out, err := run(t, jsonApp(), "--input", writeScan(t))
	require.NoError(t, err)

	var got jsonTables
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotNil(t, got.Positive)
	assert.Nil(t, got.Negative)
	assert.Empty(t, got.Legend)
}

func TestAnnotateCommandTable(t *testing.T) {
	logging.DisableLoggingForTest(t)

	out, err := run(t, &application.Mock{}, "--input", writeScan(t), "--negative")
	require.NoError(t, err)
	assert.Contains(t, out, "Positive clusters (1)")
	assert.Contains(t, out, "Negative clusters (1)")
	assert.Contains(t, out, "Left Thalamus")
	assert.Contains(t, out, "Primary Visual Cortex")
}

func TestAnnotateCommandSave(t *testing.T) {
	logging.DisableLoggingForTest(t)
	dir := t.TempDir()
	logger := logging.NewTestLogger(t)
	app := jsonApp()
	app.LoggerFunc = func() *zerolog.Logger { return logger.Logger }

	_, err := run(t, app, "--input", writeScan(t), "-n", "--save", filepath.Join(dir, "scan.csv"))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "scan_positive.csv"))
	assert.FileExists(t, filepath.Join(dir, "scan_negative.csv"))
	assert.True(t, logger.ContainsAll("Saved tables", "run_id"))
}

func TestAnnotateCommandErrors(t *testing.T) {
	logging.DisableLoggingForTest(t)
	scan := writeScan(t)

	t.Run("input required", func(t *testing.T) {
		_, err := run(t, jsonApp())
		require.Error(t, err)
	})

	t.Run("missing input", func(t *testing.T) {
		_, err := run(t, jsonApp(), "--input", filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		var ioErr *errors.IOError
		assert.ErrorAs(t, err, &ioErr)
	})

	t.Run("unknown atlas", func(t *testing.T) {
		_, err := run(t, jsonApp(), "--input", scan, "--atlas", "nope")
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("bad connectivity", func(t *testing.T) {
		_, err := run(t, jsonApp(), "--input", scan, "--connectivity", "7")
		require.Error(t, err)
	})

	t.Run("bad ambiguity policy", func(t *testing.T) {
		_, err := run(t, jsonApp(), "--input", scan, "--ambiguity", "random")
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("unsupported save target", func(t *testing.T) {
		_, err := run(t, jsonApp(), "--input", scan, "--save", filepath.Join(t.TempDir(), "out.xlsx"))
		assert.True(t, errors.IsValidationError(err))
	})
}
