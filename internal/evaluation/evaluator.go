package evaluation

import (
	"sort"

	"github.com/issuelens/backend/internal/record"
)

// Outcome is the result of scoring one hit list against a ground-truth
// related-id set.
type Outcome struct {
	// Found holds the related ids that appeared in the hit list, in
	// hit order.
	Found []string
	// FoundSet is Found as a set, for membership tests (highlighting).
	FoundSet     map[string]struct{}
	TotalRelated int
	// Fraction is len(Found)/TotalRelated, or 0 when there is no
	// ground truth. Defined as zero rather than NaN so progress
	// displays stay well-behaved.
	Fraction float64
}

// Evaluate intersects the hit identifiers with the related set. It is
// a pure function: identical inputs always yield identical outcomes.
func Evaluate(hits []record.Hit, related map[string]struct{}) Outcome {
	outcome := Outcome{
		FoundSet:     make(map[string]struct{}),
		TotalRelated: len(related),
	}

	for _, hit := range hits {
		id := record.NormalizeID(hit.ID)
		if _, ok := related[id]; !ok {
			continue
		}
		if _, seen := outcome.FoundSet[id]; seen {
			continue
		}
		outcome.FoundSet[id] = struct{}{}
		outcome.Found = append(outcome.Found, id)
	}

	if outcome.TotalRelated > 0 {
		outcome.Fraction = float64(len(outcome.Found)) / float64(outcome.TotalRelated)
	}

	return outcome
}

// SortedIDs returns the related ids of set in a stable order, for
// display and logging.
func SortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
