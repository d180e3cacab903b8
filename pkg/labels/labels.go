// Package labels turns the raw region names bound to a cluster into the
// display strings of an annotated table: cleaned region names, heuristic
// group names, and a single network label.
//
// Every list is deduplicated keeping the first occurrence, so the dominance
// order reported by the descriptor generator survives into the table.
package labels

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/agentstation/blobtable/pkg/constants"
)

// Clean strips formatting noise from one raw region name: the leading
// cortical marker is removed, underscores become spaces, runs of
// whitespace collapse, and the result is NFC-normalized.
func Clean(name string) string {
	name = norm.NFC.String(name)
	name = strings.TrimPrefix(name, constants.CorticalPrefix)
	name = strings.ReplaceAll(name, "_", " ")
	return strings.Join(strings.Fields(name), " ")
}

// Dedupe returns names without repeats, keeping the first occurrence of each.
// Empty strings are dropped.
func Dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Join flattens names into one cell using the table separator.
func Join(names []string) string {
	return strings.Join(names, constants.Separator)
}

// Split reverses Join.
func Split(cell string) []string {
	if cell == "" {
		return nil
	}
	return strings.Split(cell, constants.Separator)
}

// IsCortical reports whether a raw region name carries the cortical marker.
func IsCortical(name string) bool {
	return strings.HasPrefix(name, constants.CorticalPrefix)
}

// HasCortical reports whether any raw region name carries the cortical marker.
func HasCortical(names []string) bool {
	for _, n := range names {
		if IsCortical(n) {
			return true
		}
	}
	return false
}
