package record

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is one bug-tracker issue as stored in the search index. The
// index schema is loose, so everything beyond the identifier stays in
// the raw source map and is accessed through typed helpers.
type Record struct {
	ID     string
	Source map[string]interface{}
}

// Hit is one search result, already id-normalized by the store client.
// Order of a []Hit slice is the store's relevance ranking.
type Hit struct {
	ID          string
	Score       float64
	Source      map[string]interface{}
	Explanation interface{}
}

// Subject returns the issue subject, empty when absent.
func (r *Record) Subject() string {
	return r.Text("subject")
}

// Text returns the named field rendered as a trimmed string. List
// values are joined with ", " so they stay displayable.
func (r *Record) Text(field string) string {
	if r == nil || r.Source == nil {
		return ""
	}
	raw, ok := r.Source[field]
	if !ok || raw == nil {
		return ""
	}

	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s := strings.TrimSpace(Stringify(item))
			if s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return strings.TrimSpace(Stringify(v))
	}
}

// Stringify renders a raw field value as a string. JSON numbers decode
// as float64, so integral floats are formatted without an exponent or
// trailing fraction to keep identifiers comparable.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// NormalizeID maps any raw identifier representation onto the one
// canonical form used for every comparison downstream.
func NormalizeID(v interface{}) string {
	return strings.TrimSpace(Stringify(v))
}

// ValidateID enforces the identifier shape before any store call:
// issue ids are positive integers.
func ValidateID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("record id is empty")
	}
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return fmt.Errorf("record id %q is not a positive integer", id)
	}
	return nil
}
