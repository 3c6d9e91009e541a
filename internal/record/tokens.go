package record

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	prose "github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/issuelens/backend/pkg/logger"
)

// Tokens parses the candidate tokens out of a record field. Candidate
// fields are produced by an external AI generation step and arrive
// either as a native list or as a delimited string. Order is preserved
// so the frontend can key checkboxes by position.
func Tokens(rec *Record, field string) []string {
	if rec == nil || rec.Source == nil || field == "" {
		return nil
	}
	raw, ok := rec.Source[field]
	if !ok {
		return nil
	}
	return SplitValues(raw)
}

// StripHTML flattens markup in free-text issue fields to plain text.
// Forge notes routinely carry HTML; rendering them raw breaks the
// markdown output.
func StripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}

	doc.Find("script, style").Remove()
	return strings.TrimSpace(doc.Text())
}

// SegmentSentences derives candidate sentence tokens locally when the
// AI-generated sentence field is missing. This is a config-gated
// fallback; the normal path reads the materialized field.
func SegmentSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	doc, err := prose.NewDocument(text, prose.WithTagging(false), prose.WithExtraction(false))
	if err != nil {
		logger.Warn("Sentence segmentation failed", zap.Error(err))
		return nil
	}

	var out []string
	for _, sent := range doc.Sentences() {
		s := strings.TrimSpace(sent.Text)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
