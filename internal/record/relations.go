package record

import (
	"regexp"
	"strings"
)

// splitPattern matches delimiter runs inside scalar relation and token
// fields: commas, semicolons and whitespace in any combination.
var splitPattern = regexp.MustCompile(`[,;\s]+`)

// SplitValues parses a raw field value into its string elements. Native
// lists are stringified and trimmed element-wise; scalar strings are
// split on delimiter runs. Empty fragments are dropped, order is kept.
func SplitValues(raw interface{}) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s := strings.TrimSpace(Stringify(item))
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		s := strings.TrimSpace(Stringify(v))
		if s == "" {
			return nil
		}
		var out []string
		for _, frag := range splitPattern.Split(s, -1) {
			frag = strings.TrimSpace(frag)
			if frag != "" {
				out = append(out, frag)
			}
		}
		return out
	}
}

// Relations unions the identifiers found in the named relation fields
// of rec into one deduplicated set. Absent or empty fields contribute
// nothing. The reference record's own id is NOT removed here; callers
// building a ground-truth set must exclude it themselves.
func Relations(rec *Record, fields []string) map[string]struct{} {
	related := make(map[string]struct{})
	if rec == nil || rec.Source == nil {
		return related
	}

	for _, field := range fields {
		raw, ok := rec.Source[field]
		if !ok {
			continue
		}
		for _, id := range SplitValues(raw) {
			related[NormalizeID(id)] = struct{}{}
		}
	}

	return related
}

// RelatedSet is Relations with the reference record's own identifier
// excluded. Self-relations in source data are a data quirk, not
// evidence of a true duplicate.
func RelatedSet(rec *Record, fields []string) map[string]struct{} {
	related := Relations(rec, fields)
	if rec != nil {
		delete(related, NormalizeID(rec.ID))
	}
	return related
}
