// Package app provides the application context and dependency management
// for the blobtable CLI: configuration, logging, the atlas registry and the
// root command.
package app

import (
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/blobtable"
	"github.com/agentstation/blobtable/cmd/application"
	"github.com/agentstation/blobtable/pkg/atlas"
	"github.com/agentstation/blobtable/pkg/errors"
)

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)

// App represents the blobtable application with all its dependencies.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
	// fixedLogger is set when the logger was injected and must survive flag parsing.
	fixedLogger bool

	// Atlas registry (lazy-initialized, singleton)
	mu       sync.RWMutex
	registry *atlas.Registry
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig(os.Getenv("BLOBTABLE_CONFIG"))
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Registry returns the atlas registry, creating it lazily if needed.
// Atlases found in the configured atlas directory are added to the
// embedded ones.
func (a *App) Registry() (*atlas.Registry, error) {
	a.mu.RLock()
	if a.registry != nil {
		r := a.registry
		a.mu.RUnlock()
		return r, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.registry != nil {
		return a.registry, nil
	}

	registry, err := atlas.Embedded()
	if err != nil {
		return nil, errors.WrapResource("load", "atlas registry", "embedded", err)
	}

	if dir := a.config.AtlasDir; dir != "" {
		extra, err := atlas.LoadFS(os.DirFS(dir), ".")
		if err != nil {
			return nil, errors.WrapResource("load", "atlas registry", dir, err)
		}
		for _, at := range extra.List() {
			if err := registry.Register(at); err != nil {
				return nil, err
			}
		}
		a.logger.Debug().Str("dir", dir).Int("atlases", extra.Len()).Msg("Loaded atlas directory")
	}

	a.registry = registry
	return registry, nil
}

// Annotator returns a new annotator built from the configuration. opts are
// applied after the configured options.
func (a *App) Annotator(opts ...blobtable.Option) (blobtable.Annotator, error) {
	registry, err := a.Registry()
	if err != nil {
		return nil, err
	}
	configured, err := a.config.AnnotatorOptions(registry)
	if err != nil {
		return nil, err
	}
	annotator, err := blobtable.New(append(configured, opts...)...)
	if err != nil {
		return nil, err
	}
	return annotator, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return &errors.ValidationError{Field: "config", Message: "cannot be nil"}
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		a.fixedLogger = logger != nil
		return nil
	}
}

// WithRegistry sets a custom atlas registry (useful for testing).
func WithRegistry(r *atlas.Registry) Option {
	return func(a *App) error {
		a.registry = r
		return nil
	}
}
