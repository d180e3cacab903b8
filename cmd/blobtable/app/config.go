package app

import (
	"math"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/blobtable"
	"github.com/agentstation/blobtable/internal/cmd/output"
	"github.com/agentstation/blobtable/pkg/atlas"
	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/errors"
	"github.com/agentstation/blobtable/pkg/reconciler"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Annotation settings
	Atlas             string
	AtlasDir          string
	IncludeNegative   bool
	CoverageThreshold float64
	ShowLegend        bool
	Ambiguity         string
	Strategy          string

	// Logging configuration
	LogLevel    string
	EnvLogLevel string
	LogFormat   string
	LogOutput   string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later by UpdateFromFlags)
//  2. BLOBTABLE_* environment variables
//  3. .env files
//  4. Config file (configFile, or .blobtable.yaml in $HOME or the working directory)
//  5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("atlas", constants.DefaultAtlas)
	v.SetDefault("coverage_threshold", constants.DefaultCoverageThreshold)
	v.SetDefault("ambiguity", string(reconciler.AmbiguityFail))
	v.SetDefault("strategy", reconciler.StrategyTypeAuto.String())

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError(configFile, "cannot read config file", errors.WrapParse("yaml", configFile, err))
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.ConfigName)
		// A missing config file is fine; a broken one is not.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError(v.ConfigFileUsed(), "cannot read config file", errors.WrapParse("yaml", v.ConfigFileUsed(), err))
			}
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Atlas:             v.GetString("atlas"),
		AtlasDir:          v.GetString("atlas_dir"),
		IncludeNegative:   v.GetBool("include_negative"),
		CoverageThreshold: v.GetFloat64("coverage_threshold"),
		ShowLegend:        v.GetBool("show_legend"),
		Ambiguity:         v.GetString("ambiguity"),
		Strategy:          v.GetString("strategy"),

		EnvLogLevel: getEnvOrDefault("LOG_LEVEL", v.GetString("log_level")),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:   getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the values that cannot be corrected silently.
// Failures are ConfigErrors wrapping the underlying ValidationError.
func (c *Config) Validate() error {
	if math.IsNaN(c.CoverageThreshold) || math.IsInf(c.CoverageThreshold, 0) || c.CoverageThreshold < 0 {
		return invalid("coverage_threshold", &errors.ValidationError{
			Field:   "coverage_threshold",
			Value:   c.CoverageThreshold,
			Message: "must be a finite percentage >= 0",
		})
	}
	if _, err := output.ParseFormat(c.Format); err != nil {
		return invalid("format", errors.WrapValidation("format", err))
	}
	if _, err := reconciler.ParseAmbiguityPolicy(c.Ambiguity); err != nil {
		return invalid("ambiguity", errors.WrapValidation("ambiguity", err))
	}
	if _, err := reconciler.ParseStrategyType(c.Strategy); err != nil {
		return invalid("strategy", errors.WrapValidation("strategy", err))
	}
	return nil
}

func invalid(key string, err error) error {
	return errors.NewConfigError(key, err.Error(), err)
}

// UpdateFromFlags updates config values from parsed command flags.
// Called after cobra parses flags so flags take precedence over config
// file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// AnnotatorOptions converts the annotation settings into library options.
func (c *Config) AnnotatorOptions(registry *atlas.Registry) ([]blobtable.Option, error) {
	policy, err := reconciler.ParseAmbiguityPolicy(c.Ambiguity)
	if err != nil {
		return nil, err
	}
	strategyType, err := reconciler.ParseStrategyType(c.Strategy)
	if err != nil {
		return nil, err
	}
	strategy, err := reconciler.NewStrategy(strategyType)
	if err != nil {
		return nil, err
	}

	return []blobtable.Option{
		blobtable.WithAtlasRegistry(registry),
		blobtable.WithAtlas(c.Atlas),
		blobtable.WithNegative(c.IncludeNegative),
		blobtable.WithCoverageThreshold(c.CoverageThreshold),
		blobtable.WithVerbose(c.Verbose),
		blobtable.WithShowLegend(c.ShowLegend),
		blobtable.WithAmbiguityPolicy(policy),
		blobtable.WithStrategy(strategy),
	}, nil
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is loaded first; godotenv never overrides a set variable.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
