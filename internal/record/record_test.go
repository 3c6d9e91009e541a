package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, ""},
		{"string", "hello", "hello"},
		{"integral float", float64(101), "101"},
		{"large integral float", float64(1234567), "1234567"},
		{"fractional float", 1.5, "1.5"},
		{"int", 42, "42"},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stringify(tt.in))
		})
	}
}

func TestNormalizeID(t *testing.T) {
	// Numeric and string representations of the same id must collapse
	// to one canonical form.
	assert.Equal(t, NormalizeID("101"), NormalizeID(float64(101)))
	assert.Equal(t, "101", NormalizeID("  101  "))
}

func TestValidateID(t *testing.T) {
	require.NoError(t, ValidateID("100"))
	require.NoError(t, ValidateID(" 7 "))

	assert.Error(t, ValidateID(""))
	assert.Error(t, ValidateID("abc"))
	assert.Error(t, ValidateID("-3"))
	assert.Error(t, ValidateID("0"))
	assert.Error(t, ValidateID("12.5"))
}

func TestRecordText(t *testing.T) {
	rec := &Record{
		ID: "100",
		Source: map[string]interface{}{
			"subject": "  CSS bug in backend  ",
			"tags":    []interface{}{"css", "regression", ""},
			"count":   float64(3),
		},
	}

	assert.Equal(t, "CSS bug in backend", rec.Subject())
	assert.Equal(t, "css, regression", rec.Text("tags"))
	assert.Equal(t, "3", rec.Text("count"))
	assert.Equal(t, "", rec.Text("missing"))

	var nilRec *Record
	assert.Equal(t, "", nilRec.Text("subject"))
}
