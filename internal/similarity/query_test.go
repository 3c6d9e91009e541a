package similarity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolQuery(t *testing.T, spec *QuerySpec) map[string]interface{} {
	t.Helper()
	query, ok := spec.Body["query"].(map[string]interface{})
	require.True(t, ok)
	boolPart, ok := query["bool"].(map[string]interface{})
	require.True(t, ok)
	return boolPart
}

func shouldClauses(t *testing.T, spec *QuerySpec) []interface{} {
	t.Helper()
	should, ok := boolQuery(t, spec)["should"].([]interface{})
	require.True(t, ok)
	return should
}

func matchClause(t *testing.T, clause interface{}, field string) map[string]interface{} {
	t.Helper()
	match, ok := clause.(map[string]interface{})["match"].(map[string]interface{})
	require.True(t, ok)
	params, ok := match[field].(map[string]interface{})
	require.True(t, ok)
	return params
}

func TestBuildWeightedShould(t *testing.T) {
	spec, err := Build(BuildInput{
		Strategy:     StrategyWeightedShould,
		Subject:      "CSS bug in backend",
		SubjectBoost: 1.0,
		Clauses: []Clause{
			{Field: "ai_tags", Boost: 0.2, Values: []string{"css bug", "regression"}},
		},
		ExcludeID: "100",
		Size:      10,
	})
	require.NoError(t, err)

	should := shouldClauses(t, spec)
	require.Len(t, should, 3)

	subject := matchClause(t, should[0], "subject")
	assert.Equal(t, "CSS bug in backend", subject["query"])
	assert.Equal(t, 1.0, subject["boost"])

	first := matchClause(t, should[1], "ai_tags")
	assert.Equal(t, "css bug", first["query"])
	assert.Equal(t, 0.2, first["boost"])
	assert.Equal(t, "AUTO", first["fuzziness"])

	second := matchClause(t, should[2], "ai_tags")
	assert.Equal(t, "regression", second["query"])
	assert.Equal(t, 0.2, second["boost"])

	boolPart := boolQuery(t, spec)
	assert.Equal(t, 1, boolPart["minimum_should_match"])

	mustNot, ok := boolPart["must_not"].([]interface{})
	require.True(t, ok)
	require.Len(t, mustNot, 1)
	term := mustNot[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "100", term["id.keyword"])

	assert.Equal(t, 10, spec.Body["size"])
	assert.NotContains(t, spec.Body, "explain")
}

func TestBuildEmptyClauseSet(t *testing.T) {
	// All tokens deselected and no subject: the query still builds and
	// executes rather than being special-cased away.
	spec, err := Build(BuildInput{
		Strategy:     StrategyWeightedShould,
		Subject:      "   ",
		SubjectBoost: 1.0,
		Clauses: []Clause{
			{Field: "ai_tags", Boost: 0.2, Values: nil},
			{Field: "ai_sentences", Boost: 0.5, Values: []string{"", "  "}},
		},
		ExcludeID: "100",
		Size:      5,
	})
	require.NoError(t, err)

	assert.Empty(t, shouldClauses(t, spec))
	assert.Contains(t, boolQuery(t, spec), "must_not")
}

func TestBuildExcludeIDSet(t *testing.T) {
	spec, err := Build(BuildInput{
		Strategy:   StrategyWeightedShould,
		Subject:    "subject",
		ExcludeID:  "100",
		ExcludeIDs: []string{"205", "301"},
		Size:       10,
	})
	require.NoError(t, err)

	mustNot, ok := boolQuery(t, spec)["must_not"].([]interface{})
	require.True(t, ok)
	require.Len(t, mustNot, 2)

	term := mustNot[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "100", term["id.keyword"])

	ids := mustNot[1].(map[string]interface{})["ids"].(map[string]interface{})
	assert.Equal(t, []string{"205", "301"}, ids["values"])

	// Without an exclusion set the ids clause is absent entirely.
	spec, err = Build(BuildInput{Strategy: StrategyWeightedShould, ExcludeID: "100", Size: 10})
	require.NoError(t, err)
	mustNot = boolQuery(t, spec)["must_not"].([]interface{})
	assert.Len(t, mustNot, 1)
}

func TestBuildRejectsUnnamedClause(t *testing.T) {
	_, err := Build(BuildInput{
		Strategy: StrategyWeightedShould,
		Clauses: []Clause{
			{Field: "", Boost: 0.2, Values: []string{"css"}},
		},
		ExcludeID: "1",
		Size:      5,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no field name")
}

func TestBuildBoostPassthrough(t *testing.T) {
	// Each should clause carries the literal boost it was given, so a
	// raised boost never shrinks that clause's weight in the body.
	for _, boost := range []float64{0.1, 0.2, 1.0, 2.5} {
		spec, err := Build(BuildInput{
			Strategy: StrategyWeightedShould,
			Clauses: []Clause{
				{Field: "ai_tags", Boost: boost, Values: []string{"css"}},
			},
			ExcludeID: "1",
			Size:      5,
		})
		require.NoError(t, err)

		params := matchClause(t, shouldClauses(t, spec)[0], "ai_tags")
		assert.Equal(t, boost, params["boost"])
	}
}

func TestBuildExplain(t *testing.T) {
	spec, err := Build(BuildInput{
		Strategy:  StrategyWeightedShould,
		Subject:   "subject",
		ExcludeID: "1",
		Size:      5,
		Explain:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, true, spec.Body["explain"])
}

func TestBuildMultiMatch(t *testing.T) {
	spec, err := Build(BuildInput{
		Strategy:     StrategyMultiMatch,
		Subject:      "CSS bug",
		SubjectBoost: 1.0,
		Clauses: []Clause{
			{Field: "ai_tags", Boost: 0.2},
			{Field: "ai_sentences", Boost: 0.5},
		},
		ExcludeID: "100",
		Size:      10,
	})
	require.NoError(t, err)

	should := shouldClauses(t, spec)
	require.Len(t, should, 1)

	multi := should[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "CSS bug", multi["query"])
	assert.Equal(t, "AUTO", multi["fuzziness"])
	assert.Equal(t, []string{"subject^1", "ai_tags^0.2", "ai_sentences^0.5"}, multi["fields"])
}

func TestBuildRejectsKNN(t *testing.T) {
	_, err := Build(BuildInput{Strategy: StrategyKNN, ExcludeID: "1", Size: 5})
	assert.Error(t, err)
}

func TestTraceIsValidJSON(t *testing.T) {
	spec, err := Build(BuildInput{
		Strategy:     StrategyWeightedShould,
		Subject:      "subject text",
		SubjectBoost: 1.0,
		ExcludeID:    "42",
		Size:         3,
	})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(spec.Trace()), &decoded))
	assert.Contains(t, decoded, "query")
}
