// Package hints provides actionable guidance printed after a failed command.
package hints

import (
	"fmt"
	"strings"

	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/errors"
)

// Hint represents actionable user guidance.
type Hint struct {
	Message string // Human-readable guidance message
	Command string // Optional command to run
}

// New creates a new hint with the given message.
func New(message string) *Hint {
	return &Hint{Message: message}
}

// NewCommand creates a new hint with a specific command.
func NewCommand(message, command string) *Hint {
	return &Hint{Message: message, Command: command}
}

// String returns a string representation of the hint.
func (h *Hint) String() string {
	s := "hint: " + h.Message
	if h.Command != "" {
		s += fmt.Sprintf("\n   Run: %s", h.Command)
	}
	return s
}

// ForError returns hints for recovering from err, most specific first.
func ForError(err error) []*Hint {
	if err == nil {
		return nil
	}

	var out []*Hint
	var notFound *errors.NotFoundError
	var rec *errors.ReconciliationError
	var parse *errors.ParseError
	var res *errors.ResourceError

	switch {
	case errors.As(err, &notFound) && notFound.Resource == "atlas":
		out = append(out, NewCommand("List the available atlas names", constants.AppName+" atlases"))
	case errors.As(err, &rec) && errors.Is(err, errors.ErrAmbiguousMatch):
		out = append(out,
			New(fmt.Sprintf("Several %s records share the key %s; the tables cannot tell these clusters apart", rec.Source, rec.Key)),
			New("Add cluster_id to every record, or accept the first candidate with --ambiguity first"),
		)
	case errors.As(err, &rec):
		out = append(out, New("Check that every descriptor table was computed from the same cluster set and threshold"))
	case errors.As(err, &res) && res.Resource == "atlas" && errors.Is(err, errors.ErrAlreadyExists):
		out = append(out, New("Rename the atlas in atlas_dir; "+res.ID+" is already registered"))
	case errors.As(err, &parse):
		out = append(out, New("Check the YAML syntax and field names of "+parse.File))
	case errors.IsValidationError(err):
		out = append(out, NewCommand("See the accepted flags and values", constants.AppName+" help"))
	case errors.IsCanceled(err):
		out = append(out, New("The run was interrupted before any output was written"))
	}
	return out
}

// Format renders hints one per line block.
func Format(hs []*Hint) string {
	lines := make([]string, 0, len(hs))
	for _, h := range hs {
		lines = append(lines, h.String())
	}
	return strings.Join(lines, "\n")
}
