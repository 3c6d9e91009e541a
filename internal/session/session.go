package session

import "strings"

// Token is one candidate search token offered to the user: an
// AI-generated tag or sentence with a toggle and an editable label.
// Tokens are never persisted; edits live only in the session.
type Token struct {
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// State is the mutable per-session exploration state. It is owned by
// the frontend (one State per WebSocket connection); the core query
// and evaluation functions receive plain values derived from it and
// hold no session state themselves.
type State struct {
	RecordID  string  `json:"record_id"`
	Tags      []Token `json:"tags"`
	Sentences []Token `json:"sentences"`

	SubjectBoost  float64 `json:"subject_boost"`
	TagBoost      float64 `json:"tag_boost"`
	SentenceBoost float64 `json:"sentence_boost"`
	ResultCount   int     `json:"result_count"`
	Debug         bool    `json:"debug"`
}

// Defaults are the configured starting values a session resets to.
type Defaults struct {
	SubjectBoost  float64
	TagBoost      float64
	SentenceBoost float64
	ResultCount   int
	Debug         bool
}

func New(defaults Defaults) *State {
	s := &State{}
	s.applyDefaults(defaults)
	return s
}

// Reset rebinds the session to a reference record: all prior token
// selections and edits are dropped and every token starts selected.
// Boosts and result count revert to the configured defaults.
func (s *State) Reset(recordID string, tags, sentences []string, defaults Defaults) {
	s.RecordID = recordID
	s.Tags = freshTokens(tags)
	s.Sentences = freshTokens(sentences)
	s.applyDefaults(defaults)
}

func (s *State) applyDefaults(defaults Defaults) {
	s.SubjectBoost = defaults.SubjectBoost
	s.TagBoost = defaults.TagBoost
	s.SentenceBoost = defaults.SentenceBoost
	s.ResultCount = defaults.ResultCount
	s.Debug = defaults.Debug
}

// SelectedTags returns the labels of the currently selected tag
// tokens, edits applied, empties dropped.
func (s *State) SelectedTags() []string {
	return selectedLabels(s.Tags)
}

// SelectedSentences returns the labels of the currently selected
// sentence tokens.
func (s *State) SelectedSentences() []string {
	return selectedLabels(s.Sentences)
}

// Toggle flips the selection of the token at index in the named group.
// Out-of-range indexes are ignored.
func (s *State) Toggle(group string, index int) {
	tokens := s.group(group)
	if tokens == nil || index < 0 || index >= len(tokens) {
		return
	}
	tokens[index].Selected = !tokens[index].Selected
}

// Edit replaces the label of the token at index in the named group.
func (s *State) Edit(group string, index int, label string) {
	tokens := s.group(group)
	if tokens == nil || index < 0 || index >= len(tokens) {
		return
	}
	tokens[index].Label = label
}

func (s *State) group(name string) []Token {
	switch name {
	case "tags":
		return s.Tags
	case "sentences":
		return s.Sentences
	default:
		return nil
	}
}

func freshTokens(labels []string) []Token {
	tokens := make([]Token, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		tokens = append(tokens, Token{Label: label, Selected: true})
	}
	return tokens
}

func selectedLabels(tokens []Token) []string {
	var out []string
	for _, t := range tokens {
		label := strings.TrimSpace(t.Label)
		if t.Selected && label != "" {
			out = append(out, label)
		}
	}
	return out
}
