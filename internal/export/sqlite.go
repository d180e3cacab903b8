package export

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/agentstation/blobtable"
	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/errors"
	"github.com/agentstation/blobtable/pkg/logging"
	"github.com/agentstation/blobtable/pkg/table"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL,
	atlas TEXT NOT NULL,
	stat_column TEXT NOT NULL,
	warnings INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS clusters (
	run_id TEXT NOT NULL,
	polarity TEXT NOT NULL,
	cluster INTEGER NOT NULL,
	volume_mm3 DOUBLE NOT NULL,
	atlas_region_names TEXT NOT NULL,
	heuristic_names TEXT NOT NULL,
	x DOUBLE NOT NULL,
	y DOUBLE NOT NULL,
	z DOUBLE NOT NULL,
	peak_value DOUBLE NOT NULL,
	network TEXT NOT NULL,
	PRIMARY KEY (run_id, polarity, cluster),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// SQLite appends runs to a SQLite database.
type SQLite struct {
	path string
	now  func() time.Time
}

// NewSQLite creates a SQLite sink writing to the database at path.
func NewSQLite(path string) *SQLite {
	return &SQLite{path: path, now: time.Now}
}

// Open opens the database and creates the schema if needed.
func (s *SQLite) Open(ctx context.Context) (*sql.DB, error) {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("mkdir", dir, err)
		}
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, errors.WrapResource("open", "database", s.path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("migrate", "database", s.path, err)
	}
	return db, nil
}

// Write stores the tables as a new run. The run ID is taken from the
// context when set, otherwise generated.
func (s *SQLite) Write(ctx context.Context, t *blobtable.Tables) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ExportTimeout)
	defer cancel()

	runID := logging.RunID(ctx)
	if runID == "" {
		runID = uuid.New().String()
	}

	db, err := s.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.WrapResource("begin", "transaction", s.path, err)
	}
	if err := insertRun(ctx, tx, runID, s.now().UTC(), t); err != nil {
		_ = tx.Rollback()
		return nil, errors.WrapResource("insert", "run", runID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.WrapResource("commit", "run", runID, err)
	}

	logging.FromContext(ctx).Debug().
		Str("database", s.path).
		Str("run_id", runID).
		Msg("Stored tables")
	return &Receipt{Paths: []string{s.path}, RunID: runID}, nil
}

func insertRun(ctx context.Context, tx *sql.Tx, runID string, at time.Time, t *blobtable.Tables) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (run_id, created_at, atlas, stat_column, warnings) VALUES (?, ?, ?, ?, ?)",
		runID, at, t.Atlas, t.StatColumn, len(t.Warnings),
	); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO clusters (
		run_id, polarity, cluster, volume_mm3, atlas_region_names, heuristic_names,
		x, y, z, peak_value, network
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	var insertErr error
	t.Each(func(tbl *table.Table) {
		for _, r := range tbl.Rows {
			if insertErr != nil {
				return
			}
			_, insertErr = stmt.ExecContext(ctx,
				runID, tbl.Polarity.String(), r.Cluster, r.Volume, r.Regions, r.Heuristics,
				r.X, r.Y, r.Z, r.Peak, r.Network,
			)
		}
	})
	return insertErr
}
