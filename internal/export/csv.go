package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/blobtable"
	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/errors"
	"github.com/agentstation/blobtable/pkg/logging"
	"github.com/agentstation/blobtable/pkg/table"
)

// CSV writes each table to <base>_<polarity>.csv.
type CSV struct {
	base string
}

// NewCSV creates a CSV sink. A trailing .csv on path is dropped from the base name.
func NewCSV(path string) *CSV {
	if ext := filepath.Ext(path); strings.EqualFold(ext, ".csv") {
		path = strings.TrimSuffix(path, ext)
	}
	return &CSV{base: path}
}

// Path returns the file a table is written to.
func (c *CSV) Path(t *table.Table) string {
	return c.base + "_" + t.Polarity.String() + ".csv"
}

// Write writes every present table.
func (c *CSV) Write(ctx context.Context, t *blobtable.Tables) (*Receipt, error) {
	if dir := filepath.Dir(c.base); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("mkdir", dir, err)
		}
	}

	receipt := &Receipt{}
	var writeErr error
	t.Each(func(tbl *table.Table) {
		if writeErr != nil {
			return
		}
		if err := ctx.Err(); err != nil {
			writeErr = errors.WrapCanceled("export csv", err)
			return
		}
		path := c.Path(tbl)
		if writeErr = writeCSV(path, tbl); writeErr == nil {
			receipt.Paths = append(receipt.Paths, path)
		}
	})
	if writeErr != nil {
		return nil, writeErr
	}

	logging.FromContext(ctx).Debug().Strs("files", receipt.Paths).Msg("Wrote CSV tables")
	return receipt, nil
}

func writeCSV(path string, t *table.Table) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.WrapIO("close", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns()); err != nil {
		return errors.WrapIO("write", path, err)
	}
	if err := w.WriteAll(t.Records()); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
