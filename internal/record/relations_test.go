package record

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitValues(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want []string
	}{
		{"nil", nil, nil},
		{"empty string", "   ", nil},
		{"comma separated", "101,102,103", []string{"101", "102", "103"}},
		{"mixed delimiters", "101, 102;103\n104", []string{"101", "102", "103", "104"}},
		{"delimiter runs", "101,, ;  102", []string{"101", "102"}},
		{"native list", []interface{}{"101", " 102 ", ""}, []string{"101", "102"}},
		{"numeric list", []interface{}{float64(101), float64(102)}, []string{"101", "102"}},
		{"scalar number", float64(101), []string{"101"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitValues(tt.in))
		})
	}
}

func TestRelationsUnion(t *testing.T) {
	rec := &Record{
		ID: "100",
		Source: map[string]interface{}{
			"relations":          "101,102",
			"relations_dupe":     []interface{}{"102", "103"},
			"relations_sequence": "",
		},
	}

	related := Relations(rec, []string{"relations", "relations_dupe", "relations_sequence", "absent"})

	require.Len(t, related, 3)
	assert.Contains(t, related, "101")
	assert.Contains(t, related, "102")
	assert.Contains(t, related, "103")
}

func TestRelatedSetExcludesSelf(t *testing.T) {
	rec := &Record{
		ID: "100",
		Source: map[string]interface{}{
			"relations": "100, 101, 102",
		},
	}

	related := RelatedSet(rec, []string{"relations"})

	assert.NotContains(t, related, "100")
	assert.Len(t, related, 2)
}

func TestRelationsEmptyFields(t *testing.T) {
	rec := &Record{ID: "1", Source: map[string]interface{}{}}
	assert.Empty(t, Relations(rec, []string{"relations", "relations_dupe"}))

	assert.Empty(t, Relations(nil, []string{"relations"}))
}

// Extracting a set, re-joining it as a comma string, and extracting
// again must yield the same set.
func TestRelationExtractionIdempotent(t *testing.T) {
	rec := &Record{
		ID: "100",
		Source: map[string]interface{}{
			"relations":      "101; 102,103",
			"relations_dupe": []interface{}{"104"},
		},
	}
	fields := []string{"relations", "relations_dupe"}

	first := Relations(rec, fields)

	ids := make([]string, 0, len(first))
	for id := range first {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	roundTrip := &Record{
		ID: "100",
		Source: map[string]interface{}{
			"relations": strings.Join(ids, ","),
		},
	}
	second := Relations(roundTrip, []string{"relations"})

	assert.Equal(t, first, second)
}
