package errors_test

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/agentstation/blobtable/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "atlas",
			ID:       "schaefer",
		}
		assert.Equal(t, "atlas with ID schaefer not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("atlas", "test")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "image",
			Value:   3,
			Message: "expected a single frame",
		}
		assert.Equal(t, "validation failed for field image: expected a single frame", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "invalid configuration"}
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("not a reconciliation error", func(t *testing.T) {
		err := pkgerrors.NewValidationError("threshold", -1, "must be >= 0")
		assert.False(t, pkgerrors.IsReconciliationError(err))
	})
}

func TestReconciliationError(t *testing.T) {
	t.Run("no match", func(t *testing.T) {
		err := pkgerrors.NewReconciliationError("peaks", 2, "(120, 2, 75)", 0)
		assert.Contains(t, err.Error(), "cluster 2")
		assert.Contains(t, err.Error(), "no peaks record")
		assert.True(t, pkgerrors.IsReconciliationError(err))
		assert.True(t, errors.Is(err, pkgerrors.ErrNoMatch))
		assert.False(t, pkgerrors.IsAmbiguous(err))
	})

	t.Run("ambiguous", func(t *testing.T) {
		err := pkgerrors.NewReconciliationError("network", 0, "(120)", 2)
		assert.Contains(t, err.Error(), "ambiguous")
		assert.Contains(t, err.Error(), "2 network records")
		assert.True(t, pkgerrors.IsReconciliationError(err))
		assert.True(t, pkgerrors.IsAmbiguous(err))
		assert.False(t, errors.Is(err, pkgerrors.ErrNoMatch))
		assert.False(t, pkgerrors.IsValidationError(err))
	})

	t.Run("as target", func(t *testing.T) {
		var wrapped error = errors.Join(errors.New("positive"), pkgerrors.NewReconciliationError("peaks", 4, "k", 3))
		var recErr *pkgerrors.ReconciliationError
		require.True(t, errors.As(wrapped, &recErr))
		assert.Equal(t, 4, recErr.Index)
		assert.Equal(t, 3, recErr.Matches)
	})
}

func TestConfigError(t *testing.T) {
	base := errors.New("bad value")
	err := pkgerrors.NewConfigError("config", "coverage_threshold: not a number", base)
	assert.Contains(t, err.Error(), "config")
	assert.Contains(t, err.Error(), "coverage_threshold")
	assert.Equal(t, base, errors.Unwrap(err))
}

func TestIOError(t *testing.T) {
	t.Run("with path", func(t *testing.T) {
		base := errors.New("permission denied")
		err := pkgerrors.NewIOError("read", "/tmp/scan.yaml", base)
		assert.Equal(t, "IO error during read of /tmp/scan.yaml: permission denied", err.Error())
		assert.Equal(t, base, err.Unwrap())
	})

	t.Run("without path", func(t *testing.T) {
		err := &pkgerrors.IOError{Operation: "write", Message: "disk full"}
		assert.Equal(t, "IO error during write: disk full", err.Error())
	})
}

func TestParseError(t *testing.T) {
	t.Run("with location", func(t *testing.T) {
		err := &pkgerrors.ParseError{
			Format:  "yaml",
			File:    "atlas.yaml",
			Line:    10,
			Column:  5,
			Message: "unexpected token",
		}
		assert.Equal(t, "parse error in yaml at atlas.yaml:10:5: unexpected token", err.Error())
	})

	t.Run("file only", func(t *testing.T) {
		err := pkgerrors.NewParseError("yaml", "scan.yaml", "bad shape", nil)
		assert.Equal(t, "parse error in yaml file scan.yaml: bad shape", err.Error())
	})

	t.Run("message only", func(t *testing.T) {
		err := &pkgerrors.ParseError{Format: "csv", Message: "short row"}
		assert.Equal(t, "csv parse error: short row", err.Error())
	})
}

func TestResourceError(t *testing.T) {
	base := errors.New("no voxels")
	err := pkgerrors.NewResourceError("split", "image", "scan", base)
	assert.Equal(t, "failed to split image scan: no voxels", err.Error())
	assert.True(t, errors.Is(err, base))

	err = &pkgerrors.ResourceError{Operation: "export", Resource: "table", Message: "closed"}
	assert.Equal(t, "failed to export table: closed", err.Error())
}

func TestWrapHelpers(t *testing.T) {
	t.Run("nil passthrough", func(t *testing.T) {
		assert.NoError(t, pkgerrors.WrapValidation("f", nil))
		assert.NoError(t, pkgerrors.WrapIO("read", "p", nil))
		assert.NoError(t, pkgerrors.WrapResource("load", "atlas", "x", nil))
		assert.NoError(t, pkgerrors.WrapParse("yaml", "f", nil))
		assert.NoError(t, pkgerrors.WrapCanceled("annotate", nil))
	})

	t.Run("validation", func(t *testing.T) {
		err := pkgerrors.WrapValidation("atlas", errors.New("unknown"))
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("resource keeps reconciliation identity", func(t *testing.T) {
		inner := pkgerrors.NewReconciliationError("peaks", 0, "k", 0)
		err := pkgerrors.WrapResource("reconcile", "clusters", "positive", inner)
		assert.True(t, pkgerrors.IsReconciliationError(err))
	})

	t.Run("canceled", func(t *testing.T) {
		err := pkgerrors.WrapCanceled("annotate", context.Canceled)
		assert.True(t, pkgerrors.IsCanceled(err))
		assert.True(t, errors.Is(err, context.Canceled))
	})
}
