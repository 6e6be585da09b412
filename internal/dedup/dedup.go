// Package dedup eliminates duplicate candidate leads by normalized company
// name, both against the existing corpus and within a single batch.
package dedup

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/vilaweb/leadgen-cli/internal/model"
)

var foldCaser = cases.Fold()

// Normalize canonicalizes a company name for collision comparison:
// case-folded, trimmed, internal whitespace collapsed to single spaces.
// Normalize is idempotent.
func Normalize(name string) string {
	folded := foldCaser.String(name)
	return strings.Join(strings.Fields(folded), " ")
}

// NormalizeSet normalizes every name and returns the resulting set.
func NormalizeSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if norm := Normalize(n); norm != "" {
			set[norm] = true
		}
	}
	return set
}

// Result reports the outcome of one deduplication pass.
type Result struct {
	Kept    []model.CandidateLead
	Dropped []string // company names of discarded candidates, in input order
}

// DroppedCount returns the number of discarded candidates.
func (r Result) DroppedCount() int {
	return len(r.Dropped)
}

// Dedupe walks candidates once in order, dropping any whose normalized
// company name collides with the corpus set or with an earlier survivor in
// the same batch. Survivor order is preserved. The corpus set must contain
// already-normalized names.
func Dedupe(candidates []model.CandidateLead, corpus map[string]bool) Result {
	seen := make(map[string]bool, len(candidates))
	result := Result{Kept: make([]model.CandidateLead, 0, len(candidates))}

	for _, c := range candidates {
		norm := Normalize(c.CompanyName)
		if corpus[norm] || seen[norm] {
			result.Dropped = append(result.Dropped, c.CompanyName)
			continue
		}
		seen[norm] = true
		result.Kept = append(result.Kept, c)
	}
	return result
}
