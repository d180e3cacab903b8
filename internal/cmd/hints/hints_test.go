package hints_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/blobtable/internal/cmd/hints"
	"github.com/agentstation/blobtable/pkg/errors"
)

func TestForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unknown atlas", errors.NewNotFoundError("atlas", "nope"), "blobtable atlases"},
		{"ambiguous", fmt.Errorf("positive: %w", errors.NewReconciliationError("peaks", 2, "(8, 1, 100)", 2)), "--ambiguity first"},
		{"no match", errors.NewReconciliationError("network", 0, "8", 0), "same cluster set"},
		{"atlas clash", errors.NewResourceError("register", "atlas", "glasser", errors.ErrAlreadyExists), "Rename the atlas in atlas_dir"},
		{"parse", errors.WrapParse("yaml", "scan.yaml", fmt.Errorf("bad indent")), "scan.yaml"},
		{"validation", &errors.ValidationError{Field: "format", Message: "bad"}, "blobtable help"},
		{"canceled", errors.WrapCanceled("annotate", context.Canceled), "interrupted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := hints.ForError(tt.err)
			require.NotEmpty(t, hs)
			assert.Contains(t, hints.Format(hs), tt.want)
		})
	}

	assert.Nil(t, hints.ForError(nil))
	assert.Empty(t, hints.ForError(fmt.Errorf("plain")))
	assert.Empty(t, hints.ForError(errors.NewNotFoundError("label image", "glasser")))
}

func TestHintString(t *testing.T) {
	assert.Equal(t, "hint: List atlases\n   Run: blobtable atlases",
		hints.NewCommand("List atlases", "blobtable atlases").String())
	assert.Equal(t, "hint: Try again", hints.New("Try again").String())
}
