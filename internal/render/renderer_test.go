package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/issuelens/backend/internal/record"
)

const linkBase = "https://forge.typo3.org/issues/"

func TestReference(t *testing.T) {
	rec := &record.Record{
		ID: "100",
		Source: map[string]interface{}{
			"subject": "CSS bug in backend",
			"status":  "Resolved",
		},
	}

	out := New(linkBase).Reference(rec)

	assert.Contains(t, out, "**Subject**: CSS bug in backend")
	assert.Contains(t, out, "**ID**: 100")
	assert.Contains(t, out, "**Link**: https://forge.typo3.org/issues/100")
	assert.Contains(t, out, "**Status**: Resolved")
}

func TestReferenceMissingSubject(t *testing.T) {
	rec := &record.Record{ID: "100", Source: map[string]interface{}{}}

	out := New(linkBase).Reference(rec)

	assert.Contains(t, out, "**Subject**: No Subject")
	assert.NotContains(t, out, "**Status**")
}

func TestReferenceNil(t *testing.T) {
	assert.Empty(t, New(linkBase).Reference(nil))
}

func TestHitsPreservesOrderAndHighlights(t *testing.T) {
	hits := []record.Hit{
		{ID: "101", Score: 3.2, Source: map[string]interface{}{"subject": "first"}},
		{ID: "103", Score: 2.1, Source: map[string]interface{}{"subject": "second"}},
		{ID: "102", Score: 1.0, Source: map[string]interface{}{"subject": "third"}},
	}
	highlight := map[string]struct{}{"101": {}, "102": {}}

	out := New(linkBase).Hits(hits, nil, highlight)

	first := strings.Index(out, "ID: 101")
	second := strings.Index(out, "ID: 103")
	third := strings.Index(out, "ID: 102")
	require.True(t, first >= 0 && second >= 0 && third >= 0)
	assert.Less(t, first, second)
	assert.Less(t, second, third)

	assert.Contains(t, out, "### ✔ 1) ID: 101, Score=3.2")
	assert.Contains(t, out, "2) ID: 103, Score=2.1\n")
	assert.NotContains(t, out, "✔ 2)")
	assert.Contains(t, out, "### ✔ 3) ID: 102, Score=1")

	assert.Contains(t, out, "Link: https://forge.typo3.org/issues/101")
}

func TestHitsEmpty(t *testing.T) {
	out := New(linkBase).Hits(nil, nil, nil)
	assert.Equal(t, "No similar records found.\n", out)
}

func TestHitsExtraFields(t *testing.T) {
	hits := []record.Hit{
		{ID: "101", Score: 1, Source: map[string]interface{}{
			"subject":      "first",
			"ai_tags":      []interface{}{"css bug", "regression"},
			"ai_sentences": "The layout breaks.",
		}},
		{ID: "102", Score: 0.5, Source: map[string]interface{}{
			"subject": "second",
		}},
	}
	extras := []ExtraField{
		{Name: "ai_tags", Label: "Tags"},
		{Name: "ai_sentences"},
	}

	out := New(linkBase).Hits(hits, extras, nil)

	assert.Contains(t, out, "Tags: css bug, regression\n")
	// Unlabeled extras fall back to the raw field name.
	assert.Contains(t, out, "ai_sentences: The layout breaks.\n")

	// Absent fields are omitted entirely from the second block.
	secondBlock := out[strings.Index(out, "ID: 102"):]
	assert.NotContains(t, secondBlock, "Tags:")
	assert.NotContains(t, secondBlock, "ai_sentences:")
}

func TestHitsIncludeStatus(t *testing.T) {
	hits := []record.Hit{
		{ID: "101", Score: 3.2, Source: map[string]interface{}{"subject": "first", "status": "Resolved"}},
		{ID: "102", Score: 1.5, Source: map[string]interface{}{"subject": "second", "status": "New"}},
		{ID: "103", Score: 0.5, Source: map[string]interface{}{"subject": "third"}},
	}

	out := New(linkBase).Hits(hits, nil, map[string]struct{}{"102": {}})

	assert.Contains(t, out, "1) ID: 101, Status=Resolved, Score=3.2")
	assert.Contains(t, out, "### ✔ 2) ID: 102, Status=New, Score=1.5")
	// A hit without a status keeps the short heading.
	assert.Contains(t, out, "3) ID: 103, Score=0.5")
}

func TestHitsMissingSubject(t *testing.T) {
	out := New(linkBase).Hits([]record.Hit{{ID: "5", Score: 1}}, nil, nil)
	assert.Contains(t, out, "Subject: No Subject")
}

func TestPermalink(t *testing.T) {
	assert.Equal(t, "https://forge.typo3.org/issues/42", New(linkBase).Permalink("42"))
}
