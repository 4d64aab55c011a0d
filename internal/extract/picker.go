package extract

import (
	"sort"
	"strings"
)

const (
	// topCandidates bounds the pool considered by the non-overlap filter.
	topCandidates = 10
	// maxSurvivors bounds the selected regions per extraction.
	maxSurvivors = 5
	// overlapChars is the shared-text threshold treated as an overlap.
	overlapChars = 200
)

// pickCandidates sorts scored candidates descending and applies the
// non-overlap filter: a candidate contained in, containing, or sharing a
// long text run with an already selected region is skipped. When the filter
// eliminates everything, the single best candidate is kept.
func pickCandidates(candidates []Candidate) []Candidate {
	if len(candidates) == 0 {
		return nil
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	pool := sorted
	if len(pool) > topCandidates {
		pool = pool[:topCandidates]
	}

	var selected []Candidate
	for _, cand := range pool {
		if len(selected) >= maxSurvivors {
			break
		}
		if overlapsAny(cand, selected) {
			continue
		}
		selected = append(selected, cand)
	}

	if len(selected) == 0 {
		selected = pool[:1]
	}
	return selected
}

func overlapsAny(cand Candidate, selected []Candidate) bool {
	for _, s := range selected {
		if contains(s.node, cand.node) || contains(cand.node, s.node) {
			return true
		}
		if textOverlap(cand.Text, s.Text) {
			return true
		}
	}
	return false
}

// textOverlap reports whether two extracted texts share a run of at least
// overlapChars characters. Leading-window containment is a cheap and
// deterministic stand-in for full substring search.
func textOverlap(a, b string) bool {
	if len(a) < overlapChars || len(b) < overlapChars {
		return false
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	for i := 0; i+overlapChars <= len(a); i += overlapChars / 2 {
		if strings.Contains(b, a[i:i+overlapChars]) {
			return true
		}
	}
	return false
}
