package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/issuelens/backend/internal/record"
)

func hits(ids ...string) []record.Hit {
	out := make([]record.Hit, 0, len(ids))
	for i, id := range ids {
		out = append(out, record.Hit{ID: id, Score: float64(len(ids) - i)})
	}
	return out
}

func set(ids ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func TestEvaluateFullRecall(t *testing.T) {
	outcome := Evaluate(hits("101", "103", "102"), set("101", "102"))

	assert.Equal(t, 1.0, outcome.Fraction)
	assert.Equal(t, 2, outcome.TotalRelated)
	// Found keeps hit order, not related-set order.
	assert.Equal(t, []string{"101", "102"}, outcome.Found)
	assert.Contains(t, outcome.FoundSet, "101")
	assert.Contains(t, outcome.FoundSet, "102")
	assert.NotContains(t, outcome.FoundSet, "103")
}

func TestEvaluatePartialRecall(t *testing.T) {
	outcome := Evaluate(hits("103", "102", "104"), set("101", "102"))

	assert.Equal(t, 0.5, outcome.Fraction)
	assert.Equal(t, []string{"102"}, outcome.Found)
}

func TestEvaluateNoGroundTruth(t *testing.T) {
	outcome := Evaluate(hits("101", "102"), set())

	assert.Zero(t, outcome.Fraction)
	assert.Zero(t, outcome.TotalRelated)
	assert.Empty(t, outcome.Found)
}

func TestEvaluateNoHits(t *testing.T) {
	outcome := Evaluate(nil, set("101"))

	assert.Zero(t, outcome.Fraction)
	assert.Equal(t, 1, outcome.TotalRelated)
}

func TestEvaluateDedupesHits(t *testing.T) {
	outcome := Evaluate(hits("101", "101", "101"), set("101", "102"))

	assert.Equal(t, []string{"101"}, outcome.Found)
	assert.Equal(t, 0.5, outcome.Fraction)
}

func TestEvaluateNormalizesHitIDs(t *testing.T) {
	// Store documents sometimes carry numeric ids; they must still
	// intersect with the canonical string forms of the related set.
	outcome := Evaluate([]record.Hit{{ID: record.NormalizeID("101")}}, set("101"))

	assert.Equal(t, 1.0, outcome.Fraction)
}

func TestEvaluateBounds(t *testing.T) {
	cases := []struct {
		hits    []record.Hit
		related map[string]struct{}
	}{
		{hits("1", "2", "3"), set("4", "5")},
		{hits("1", "2", "3"), set("1", "2", "3")},
		{hits(), set("1")},
		{hits("1"), set()},
	}
	for _, tc := range cases {
		outcome := Evaluate(tc.hits, tc.related)
		assert.GreaterOrEqual(t, outcome.Fraction, 0.0)
		assert.LessOrEqual(t, outcome.Fraction, 1.0)
		assert.LessOrEqual(t, len(outcome.Found), len(tc.related))
	}
}

func TestEvaluateIsPure(t *testing.T) {
	h := hits("101", "103", "102")
	r := set("101", "102")

	first := Evaluate(h, r)
	second := Evaluate(h, r)

	require.Equal(t, first.Found, second.Found)
	require.Equal(t, first.Fraction, second.Fraction)
}

func TestSortedIDs(t *testing.T) {
	assert.Equal(t, []string{"101", "102", "99"}, SortedIDs(set("102", "99", "101")))
	assert.Empty(t, SortedIDs(nil))
}
