package similarity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Clause is one weighted group of candidate tokens searched against a
// single field. Every non-empty value becomes its own should clause so
// the operator can see and tune each token's contribution.
type Clause struct {
	Field  string
	Boost  float64
	Values []string
}

// BuildInput is everything a query is built from. It is assembled
// fresh per search from the session's current selections and boosts.
type BuildInput struct {
	Strategy     Strategy
	Subject      string
	SubjectBoost float64
	Clauses      []Clause
	// ExcludeID is the reference record, always kept out of the hits.
	ExcludeID string
	// ExcludeIDs are additional document ids to drop from the hits,
	// matched against the store's _id values.
	ExcludeIDs []string
	Size       int
	Explain    bool
}

// QuerySpec is an assembled, immutable search request body ready for
// the store client.
type QuerySpec struct {
	Strategy Strategy
	Body     map[string]interface{}
}

// Trace renders the assembled body as indented JSON for inspection.
// It is available regardless of the debug flag.
func (q *QuerySpec) Trace() string {
	data, err := json.MarshalIndent(q.Body, "", "  ")
	if err != nil {
		return fmt.Sprintf("unrenderable query: %v", err)
	}
	return string(data)
}

// Build assembles the similarity query for in. An empty clause set is
// not an error: the resulting query executes and simply matches little
// or nothing. A clause naming no field while carrying values is a
// programming error and fails fast.
func Build(in BuildInput) (*QuerySpec, error) {
	var should []interface{}

	switch in.Strategy {
	case StrategyWeightedShould:
		if subject := strings.TrimSpace(in.Subject); subject != "" {
			should = append(should, map[string]interface{}{
				"match": map[string]interface{}{
					"subject": map[string]interface{}{
						"query": subject,
						"boost": in.SubjectBoost,
					},
				},
			})
		}

		for _, clause := range in.Clauses {
			values := nonEmpty(clause.Values)
			if len(values) == 0 {
				continue
			}
			if clause.Field == "" {
				return nil, fmt.Errorf("clause with %d values has no field name", len(values))
			}
			for _, value := range values {
				should = append(should, map[string]interface{}{
					"match": map[string]interface{}{
						clause.Field: map[string]interface{}{
							"query":     value,
							"boost":     clause.Boost,
							"fuzziness": "AUTO",
						},
					},
				})
			}
		}

	case StrategyMultiMatch:
		if subject := strings.TrimSpace(in.Subject); subject != "" {
			fields := []string{boostedField("subject", in.SubjectBoost)}
			for _, clause := range in.Clauses {
				if clause.Field == "" {
					continue
				}
				fields = append(fields, boostedField(clause.Field, clause.Boost))
			}
			should = append(should, map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":     subject,
					"fields":    fields,
					"type":      "best_fields",
					"fuzziness": "AUTO",
				},
			})
		}

	default:
		return nil, fmt.Errorf("strategy %s does not build a store query", in.Strategy)
	}

	if should == nil {
		should = []interface{}{}
	}

	mustNot := []interface{}{
		map[string]interface{}{
			"term": map[string]interface{}{
				"id.keyword": in.ExcludeID,
			},
		},
	}
	if len(in.ExcludeIDs) > 0 {
		mustNot = append(mustNot, map[string]interface{}{
			"ids": map[string]interface{}{
				"values": in.ExcludeIDs,
			},
		})
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should":               should,
				"must_not":             mustNot,
				"minimum_should_match": 1,
			},
		},
		"size": in.Size,
	}

	if in.Explain {
		body["explain"] = true
	}

	return &QuerySpec{Strategy: in.Strategy, Body: body}, nil
}

func boostedField(field string, boost float64) string {
	return field + "^" + strconv.FormatFloat(boost, 'f', -1, 64)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
