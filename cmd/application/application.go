// Package application provides the application interface for blobtable commands.
//
// Commands accept the Application interface rather than the concrete app so
// they can be tested with internal/cmd/application.Mock.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            annotator, err := app.Annotator(blobtable.WithNegative(true))
//	            if err != nil {
//	                return err
//	            }
//	            tables, err := annotator.Annotate(cmd.Context(), img)
//	            // ... render tables
//	        },
//	    }
//	}
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/blobtable"
	"github.com/agentstation/blobtable/pkg/atlas"
)

// Application provides what commands need from the app.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Registry returns the atlas registry: the embedded atlases plus any
	// loaded from the configured atlas directory. Lazy-initialized and cached.
	Registry() (*atlas.Registry, error)

	// Annotator returns a new annotator configured from the app settings.
	// opts are applied after the configured ones and take precedence.
	Annotator(opts ...blobtable.Option) (blobtable.Annotator, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
