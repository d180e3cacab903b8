// Package export writes annotation tables to files: one CSV file per
// polarity, or a SQLite database holding every run.
package export

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/agentstation/blobtable"
	"github.com/agentstation/blobtable/pkg/errors"
)

// Sink persists annotation tables.
type Sink interface {
	Write(ctx context.Context, t *blobtable.Tables) (*Receipt, error)
}

// Receipt describes what a sink wrote.
type Receipt struct {
	Paths []string
	// RunID identifies the run in a database sink.
	RunID string
}

// ForPath picks a sink from the file extension of path: .csv, .db, .sqlite
// or .sqlite3.
func ForPath(path string) (Sink, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSV(path), nil
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLite(path), nil
	default:
		return nil, &errors.ValidationError{
			Field:   "save",
			Value:   path,
			Message: "unsupported export file type; use .csv, .db or .sqlite",
		}
	}
}
