package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/errors"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultAtlas, config.Atlas)
	assert.Equal(t, constants.DefaultCoverageThreshold, config.CoverageThreshold)
	assert.Equal(t, "fail", config.Ambiguity)
	assert.Equal(t, "auto", config.Strategy)
	assert.False(t, config.IncludeNegative)
	assert.NotEmpty(t, config.LogFormat)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("BLOBTABLE_ATLAS", "desikan")
	t.Setenv("BLOBTABLE_INCLUDE_NEGATIVE", "true")
	t.Setenv("BLOBTABLE_COVERAGE_THRESHOLD", "12.5")
	t.Setenv("BLOBTABLE_FORMAT", "yaml")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "desikan", config.Atlas)
	assert.True(t, config.IncludeNegative)
	assert.Equal(t, 12.5, config.CoverageThreshold)
	assert.Equal(t, "yaml", config.Format)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
atlas: desikan
show_legend: true
coverage_threshold: 5
ambiguity: first
`), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, config.ConfigFile)
	assert.Equal(t, "desikan", config.Atlas)
	assert.True(t, config.ShowLegend)
	assert.Equal(t, 5.0, config.CoverageThreshold)
	assert.Equal(t, "first", config.Ambiguity)

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("BLOBTABLE_ATLAS", "glasser")
		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "glasser", config.Atlas)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "absent.yaml")
		_, err := LoadConfig(path)
		var cfgErr *errors.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, path, cfgErr.Component)
		var parseErr *errors.ParseError
		assert.ErrorAs(t, err, &parseErr)
	})

	t.Run("invalid value in file", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("ambiguity: sometimes\n"), 0o644))
		_, err := LoadConfig(bad)
		var cfgErr *errors.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "ambiguity", cfgErr.Component)
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Atlas: "glasser", Ambiguity: "fail", Strategy: "auto"}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative threshold", func(c *Config) { c.CoverageThreshold = -1 }},
		{"unknown format", func(c *Config) { c.Format = "xml" }},
		{"unknown ambiguity", func(c *Config) { c.Ambiguity = "random" }},
		{"unknown strategy", func(c *Config) { c.Strategy = "fuzzy" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	t.Run("threshold is a validation error", func(t *testing.T) {
		c := valid()
		c.CoverageThreshold = -0.5
		err := c.Validate()
		assert.True(t, errors.IsValidationError(err))

		var cfgErr *errors.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "coverage_threshold", cfgErr.Component)
		assert.Contains(t, err.Error(), "configuration error in coverage_threshold")
	})

	t.Run("format wraps the parser error", func(t *testing.T) {
		c := valid()
		c.Format = "xml"
		var valErr *errors.ValidationError
		require.ErrorAs(t, c.Validate(), &valErr)
		assert.Equal(t, "format", valErr.Field)
	})
}

func TestConfigUpdateFromFlags(t *testing.T) {
	c := &Config{Format: "yaml"}
	c.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, c.Verbose)
	assert.True(t, c.NoColor)
	assert.Equal(t, "yaml", c.Format)

	c.UpdateFromFlags(false, false, false, "json", "trace")
	assert.True(t, c.Verbose, "flags never unset config values")
	assert.Equal(t, "json", c.Format)
	assert.Equal(t, "trace", c.LogLevel)
}

func TestConfigAnnotatorOptions(t *testing.T) {
	c := &Config{Atlas: "glasser", Ambiguity: "first", Strategy: "identity"}
	opts, err := c.AnnotatorOptions(nil)
	require.NoError(t, err)
	assert.Len(t, opts, 8)

	c.Strategy = "fuzzy"
	_, err = c.AnnotatorOptions(nil)
	assert.Error(t, err)
}
