package models

import "time"

// SearchRun is one recorded similarity-search interaction: the knobs
// that were set and the evaluation outcome they produced. Rows are the
// raw material for comparing boost configurations over time.
type SearchRun struct {
	ID            string
	RecordID      string
	Strategy      string
	SubjectBoost  float64
	TagBoost      float64
	SentenceBoost float64
	ResultCount   int
	HitCount      int
	FoundCount    int
	RelatedCount  int
	Fraction      float64
	LatencyMS     int
	CreatedAt     time.Time
}
