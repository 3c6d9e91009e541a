package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDefaults = Defaults{
	SubjectBoost:  1.0,
	TagBoost:      0.2,
	SentenceBoost: 0.000001,
	ResultCount:   10,
}

func TestNewAppliesDefaults(t *testing.T) {
	s := New(testDefaults)

	assert.Equal(t, 1.0, s.SubjectBoost)
	assert.Equal(t, 0.2, s.TagBoost)
	assert.Equal(t, 10, s.ResultCount)
	assert.Empty(t, s.RecordID)
	assert.Empty(t, s.Tags)
}

func TestResetStartsAllSelected(t *testing.T) {
	s := New(testDefaults)
	s.Reset("100", []string{"css bug", "regression"}, []string{"The layout breaks."}, testDefaults)

	assert.Equal(t, "100", s.RecordID)
	require.Len(t, s.Tags, 2)
	require.Len(t, s.Sentences, 1)
	for _, tok := range s.Tags {
		assert.True(t, tok.Selected)
	}
	assert.Equal(t, []string{"css bug", "regression"}, s.SelectedTags())
	assert.Equal(t, []string{"The layout breaks."}, s.SelectedSentences())
}

func TestResetDropsPriorEdits(t *testing.T) {
	s := New(testDefaults)
	s.Reset("100", []string{"css bug"}, nil, testDefaults)
	s.Toggle("tags", 0)
	s.Edit("tags", 0, "renamed")
	s.SubjectBoost = 5.0

	// Loading a new record discards every selection, edit and boost.
	s.Reset("200", []string{"other"}, nil, testDefaults)

	assert.Equal(t, "200", s.RecordID)
	assert.Equal(t, []string{"other"}, s.SelectedTags())
	assert.Equal(t, 1.0, s.SubjectBoost)
}

func TestResetSkipsBlankLabels(t *testing.T) {
	s := New(testDefaults)
	s.Reset("100", []string{" css bug ", "", "   "}, nil, testDefaults)

	require.Len(t, s.Tags, 1)
	assert.Equal(t, "css bug", s.Tags[0].Label)
}

func TestToggle(t *testing.T) {
	s := New(testDefaults)
	s.Reset("100", []string{"a", "b"}, nil, testDefaults)

	s.Toggle("tags", 1)
	assert.Equal(t, []string{"a"}, s.SelectedTags())

	s.Toggle("tags", 1)
	assert.Equal(t, []string{"a", "b"}, s.SelectedTags())
}

func TestToggleIgnoresBadInput(t *testing.T) {
	s := New(testDefaults)
	s.Reset("100", []string{"a"}, nil, testDefaults)

	s.Toggle("tags", -1)
	s.Toggle("tags", 5)
	s.Toggle("nope", 0)

	assert.Equal(t, []string{"a"}, s.SelectedTags())
}

func TestEdit(t *testing.T) {
	s := New(testDefaults)
	s.Reset("100", nil, []string{"original sentence"}, testDefaults)

	s.Edit("sentences", 0, "edited sentence")
	assert.Equal(t, []string{"edited sentence"}, s.SelectedSentences())

	// An edit blanking the label removes it from the selected set but
	// keeps the token slot.
	s.Edit("sentences", 0, "   ")
	assert.Empty(t, s.SelectedSentences())
	require.Len(t, s.Sentences, 1)
}

func TestSelectionSkipsDeselectedAndBlank(t *testing.T) {
	s := &State{Tags: []Token{
		{Label: "kept", Selected: true},
		{Label: "dropped", Selected: false},
		{Label: "", Selected: true},
	}}

	assert.Equal(t, []string{"kept"}, s.SelectedTags())
}
