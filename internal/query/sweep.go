package query

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/issuelens/backend/internal/similarity"
	"github.com/issuelens/backend/pkg/config"
	"github.com/issuelens/backend/pkg/logger"
)

// Sweeper runs the similarity search for one reference record across a
// grid of boost values and strategies, so an operator can see which
// combination recovers the most known-related records.
type Sweeper struct {
	engine *Engine
	cfg    config.SweepConfig
}

type SweepResult struct {
	Strategy      string  `json:"strategy"`
	SubjectBoost  float64 `json:"subject_boost"`
	TagBoost      float64 `json:"tag_boost"`
	SentenceBoost float64 `json:"sentence_boost"`
	Found         int     `json:"found"`
	Related       int     `json:"related"`
	Fraction      float64 `json:"fraction"`
}

type SweepReport struct {
	RecordID string        `json:"record_id"`
	Results  []SweepResult `json:"results"`
	Best     *SweepResult  `json:"best,omitempty"`
}

func NewSweeper(engine *Engine, cfg config.SweepConfig) *Sweeper {
	return &Sweeper{engine: engine, cfg: cfg}
}

// Run evaluates the whole configured grid against recordID using the
// record's full candidate token sets. Combinations are executed
// sequentially so the sweep never overlaps its own searches.
func (s *Sweeper) Run(ctx context.Context, recordID string) (*SweepReport, error) {
	// Strategy names were validated at config load; re-parse defensively
	// in case the grid was edited at runtime.
	strategies := make([]similarity.Strategy, 0, len(s.cfg.Strategies))
	for _, name := range s.cfg.Strategies {
		strategy, err := similarity.ParseStrategy(name)
		if err != nil {
			return nil, err
		}
		if strategy == similarity.StrategyKNN {
			// The embedding stub has no boost knobs; sweeping it tells
			// the operator nothing about clause weights.
			continue
		}
		strategies = append(strategies, strategy)
	}

	view, err := s.engine.Lookup(ctx, recordID)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{RecordID: view.Record.ID}

	combinations := len(strategies) * len(s.cfg.SubjectBoosts) * len(s.cfg.TagBoosts) * len(s.cfg.SentenceBoosts)
	logger.Info("Running boost sweep",
		zap.String("record_id", view.Record.ID),
		zap.Int("combinations", combinations),
	)

	for _, strategy := range strategies {
		for _, subjectBoost := range s.cfg.SubjectBoosts {
			for _, tagBoost := range s.cfg.TagBoosts {
				for _, sentenceBoost := range s.cfg.SentenceBoosts {
					sb, tb, s2b := subjectBoost, tagBoost, sentenceBoost

					resp, err := s.engine.FindSimilar(ctx, SimilarRequest{
						RecordID:      view.Record.ID,
						Tags:          view.Tags,
						Sentences:     view.Sentences,
						SubjectBoost:  &sb,
						TagBoost:      &tb,
						SentenceBoost: &s2b,
						ResultCount:   s.cfg.ResultCount,
						Strategy:      strategy.String(),
					})
					if err != nil {
						logger.Error("Sweep combination failed",
							zap.String("strategy", strategy.String()),
							zap.Float64("subject_boost", sb),
							zap.Error(err),
						)
						return nil, err
					}

					result := SweepResult{
						Strategy:      strategy.String(),
						SubjectBoost:  sb,
						TagBoost:      tb,
						SentenceBoost: s2b,
						Found:         len(resp.Found),
						Related:       len(resp.RelatedIDs),
						Fraction:      resp.Fraction,
					}
					report.Results = append(report.Results, result)

					if report.Best == nil || result.Fraction > report.Best.Fraction {
						best := result
						report.Best = &best
					}
				}
			}
		}
	}

	logger.Info("Boost sweep completed",
		zap.String("record_id", view.Record.ID),
		zap.Int("results", len(report.Results)),
	)

	return report, nil
}

// Render formats a sweep report as plain text.
func (r *SweepReport) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Boost Sweep for record %s\n", r.RecordID)
	fmt.Fprintf(&b, "=========================%s\n\n", strings.Repeat("=", len(r.RecordID)))

	for _, result := range r.Results {
		fmt.Fprintf(&b, "%-16s subject=%-8g tags=%-8g sentences=%-10g found %d/%d (%.2f)\n",
			result.Strategy,
			result.SubjectBoost,
			result.TagBoost,
			result.SentenceBoost,
			result.Found,
			result.Related,
			result.Fraction,
		)
	}

	if r.Best != nil {
		fmt.Fprintf(&b, "\nBest: %s subject=%g tags=%g sentences=%g -> %d/%d (%.2f)\n",
			r.Best.Strategy,
			r.Best.SubjectBoost,
			r.Best.TagBoost,
			r.Best.SentenceBoost,
			r.Best.Found,
			r.Best.Related,
			r.Best.Fraction,
		)
	}

	return b.String()
}
