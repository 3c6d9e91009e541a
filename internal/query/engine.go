package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/issuelens/backend/internal/cache/redis"
	"github.com/issuelens/backend/internal/embedding"
	"github.com/issuelens/backend/internal/evaluation"
	"github.com/issuelens/backend/internal/metrics"
	"github.com/issuelens/backend/internal/record"
	"github.com/issuelens/backend/internal/render"
	"github.com/issuelens/backend/internal/similarity"
	"github.com/issuelens/backend/internal/storage/models"
	"github.com/issuelens/backend/internal/storage/sqlite"
	"github.com/issuelens/backend/internal/store/elastic"
	"github.com/issuelens/backend/internal/vector/milvus"
	"github.com/issuelens/backend/pkg/config"
	"github.com/issuelens/backend/pkg/logger"
	"github.com/issuelens/backend/pkg/utils"
)

var (
	// ErrNotFound means the reference identifier matched no record.
	// Informational for the user, never a fault.
	ErrNotFound = errors.New("record not found")
	// ErrMalformedID means the identifier failed shape validation
	// before any store call was made.
	ErrMalformedID = errors.New("malformed record id")
	// ErrVectorDisabled is returned when the knn strategy is selected
	// without a configured vector index.
	ErrVectorDisabled = errors.New("vector search is not configured")
)

// Engine runs one synchronous exploration pass per user interaction:
// fetch reference, build query from the current selections, search,
// evaluate against ground truth, render. It holds no session state.
type Engine struct {
	store    *elastic.Client
	cache    *redis.Client
	db       *sqlite.Client
	vector   *milvus.Client
	embedder *embedding.Client
	renderer *render.Renderer
	cfg      config.SearchConfig
	strategy similarity.Strategy
}

func NewEngine(
	store *elastic.Client,
	cache *redis.Client,
	db *sqlite.Client,
	vector *milvus.Client,
	embedder *embedding.Client,
	cfg config.SearchConfig,
	strategy similarity.Strategy,
) *Engine {
	return &Engine{
		store:    store,
		cache:    cache,
		db:       db,
		vector:   vector,
		embedder: embedder,
		renderer: render.New(cfg.LinkBase),
		cfg:      cfg,
		strategy: strategy,
	}
}

// Renderer exposes the engine's renderer for frontends that format
// additional output themselves.
func (e *Engine) Renderer() *render.Renderer {
	return e.renderer
}

// RecordView is a reference record prepared for the frontend: parsed
// candidate tokens, ground-truth related ids, and a rendered header.
type RecordView struct {
	Record     *record.Record
	Rendered   string
	Tags       []string
	Sentences  []string
	RelatedIDs []string
}

// Lookup validates id, fetches the reference record and derives its
// candidate tokens and related-id set. Returns ErrMalformedID before
// any store call when the id shape is invalid, ErrNotFound when the
// store has no such record.
func (e *Engine) Lookup(ctx context.Context, id string) (*RecordView, error) {
	id = strings.TrimSpace(id)
	if err := record.ValidateID(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedID, err)
	}

	rec, err := e.fetchRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	related := record.RelatedSet(rec, e.cfg.RelationFields)

	sentences := record.Tokens(rec, e.cfg.SentencesField)
	if len(sentences) == 0 && e.cfg.SegmentFallback {
		text := rec.Subject() + ". " + rec.Text("all_notes")
		if e.cfg.StripHTML {
			text = record.StripHTML(text)
		}
		sentences = record.SegmentSentences(text)
	}

	return &RecordView{
		Record:     rec,
		Rendered:   e.renderer.Reference(rec),
		Tags:       record.Tokens(rec, e.cfg.TagsField),
		Sentences:  sentences,
		RelatedIDs: evaluation.SortedIDs(related),
	}, nil
}

// SimilarRequest is one similarity-search invocation: the reference
// id, the currently selected candidate tokens, and optional overrides
// of the configured boosts, size and strategy.
type SimilarRequest struct {
	RecordID      string
	Tags          []string
	Sentences     []string
	SubjectBoost  *float64
	TagBoost      *float64
	SentenceBoost *float64
	ResultCount   int
	Strategy      string
	// ExcludeIDs are known-uninteresting documents dropped from the
	// hits on top of the always-excluded reference record.
	ExcludeIDs []string
	Debug      bool
}

// SimilarResponse carries everything a frontend displays for one pass.
// Trace is always populated; per-hit explanations are requested from
// the store only when Debug was set.
type SimilarResponse struct {
	RunID       string
	Reference   string
	Hits        []record.Hit
	Found       []string
	RelatedIDs  []string
	Fraction    float64
	Rendered    string
	Trace       string
	Strategy    string
	LatencyMS   int
}

// FindSimilar executes one full pass. An empty selection still runs
// the query: predictable behavior over special cases.
func (e *Engine) FindSimilar(ctx context.Context, req SimilarRequest) (*SimilarResponse, error) {
	startTime := time.Now()
	runID := uuid.New().String()

	id := strings.TrimSpace(req.RecordID)
	if err := record.ValidateID(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedID, err)
	}

	strategy := e.strategy
	if req.Strategy != "" {
		var err error
		strategy, err = similarity.ParseStrategy(req.Strategy)
		if err != nil {
			return nil, err
		}
	}

	rec, err := e.fetchRecord(ctx, id)
	if err != nil {
		metrics.SearchTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if rec == nil {
		metrics.SearchTotal.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	related := record.RelatedSet(rec, e.cfg.RelationFields)
	metrics.RelatedSetSize.Observe(float64(len(related)))

	size := req.ResultCount
	if size <= 0 {
		size = e.cfg.ResultCount
	}

	var (
		hits  []record.Hit
		trace string
	)

	if strategy == similarity.StrategyKNN {
		hits, trace, err = e.knnSearch(ctx, rec, size)
	} else {
		hits, trace, err = e.storeSearch(ctx, rec, req, strategy, size)
	}
	if err != nil {
		metrics.SearchTotal.WithLabelValues("error").Inc()
		metrics.StoreErrors.WithLabelValues("search").Inc()
		return nil, err
	}

	outcome := evaluation.Evaluate(hits, related)

	extraFields := []render.ExtraField{
		{Name: e.cfg.TagsField, Label: e.cfg.TagsFieldLabel},
		{Name: e.cfg.SentencesField, Label: e.cfg.SentencesFieldLabel},
	}
	rendered := e.renderer.Hits(hits, extraFields, outcome.FoundSet)

	latency := int(time.Since(startTime).Milliseconds())

	metrics.SearchTotal.WithLabelValues("ok").Inc()
	metrics.SearchDuration.WithLabelValues(strategy.String()).Observe(time.Since(startTime).Seconds())
	metrics.RecallFraction.Observe(outcome.Fraction)

	e.recordRun(runID, id, strategy, req, size, hits, outcome, latency)

	logger.Info("Similarity search completed",
		zap.String("run_id", runID),
		zap.String("record_id", id),
		zap.String("strategy", strategy.String()),
		zap.Int("hits", len(hits)),
		zap.Int("found", len(outcome.Found)),
		zap.Int("related", outcome.TotalRelated),
		zap.Float64("fraction", outcome.Fraction),
		zap.Int("latency_ms", latency),
	)

	return &SimilarResponse{
		RunID:      runID,
		Reference:  e.renderer.Reference(rec),
		Hits:       hits,
		Found:      outcome.Found,
		RelatedIDs: evaluation.SortedIDs(related),
		Fraction:   outcome.Fraction,
		Rendered:   rendered,
		Trace:      trace,
		Strategy:   strategy.String(),
		LatencyMS:  latency,
	}, nil
}

func (e *Engine) storeSearch(ctx context.Context, rec *record.Record, req SimilarRequest, strategy similarity.Strategy, size int) ([]record.Hit, string, error) {
	spec, err := similarity.Build(similarity.BuildInput{
		Strategy:     strategy,
		Subject:      rec.Subject(),
		SubjectBoost: boostOr(req.SubjectBoost, e.cfg.SubjectBoost),
		Clauses: []similarity.Clause{
			{Field: e.cfg.TagsField, Boost: boostOr(req.TagBoost, e.cfg.TagsBoost), Values: req.Tags},
			{Field: e.cfg.SentencesField, Boost: boostOr(req.SentenceBoost, e.cfg.SentencesBoost), Values: req.Sentences},
		},
		ExcludeID:  rec.ID,
		ExcludeIDs: req.ExcludeIDs,
		Size:       size,
		Explain:    req.Debug,
	})
	if err != nil {
		return nil, "", err
	}

	trace := spec.Trace()

	if e.cache != nil {
		hash := utils.HashString(trace)
		if hits, ok, cacheErr := e.cache.GetSearch(ctx, hash); cacheErr == nil && ok {
			metrics.CacheHits.WithLabelValues("search").Inc()
			return hits, trace, nil
		}
		metrics.CacheMisses.WithLabelValues("search").Inc()

		hits, err := e.store.Search(ctx, spec)
		if err != nil {
			return nil, "", err
		}
		if cacheErr := e.cache.SetSearch(ctx, hash, hits); cacheErr != nil {
			logger.Warn("Failed to cache search response", zap.Error(cacheErr))
		}
		return hits, trace, nil
	}

	hits, err := e.store.Search(ctx, spec)
	if err != nil {
		return nil, "", err
	}
	return hits, trace, nil
}

// knnSearch is the embedding stub path. It only works when both the
// vector index and the embedder are configured.
func (e *Engine) knnSearch(ctx context.Context, rec *record.Record, size int) ([]record.Hit, string, error) {
	if e.vector == nil || e.embedder == nil {
		return nil, "", ErrVectorDisabled
	}

	subject := rec.Subject()
	vec, err := e.embedder.Embed(ctx, subject)
	if err != nil {
		return nil, "", err
	}

	// Fetch one extra so the reference itself can be dropped.
	vectorHits, err := e.vector.Search(ctx, vec, size+1)
	if err != nil {
		return nil, "", err
	}

	hits := make([]record.Hit, 0, len(vectorHits))
	for _, vh := range vectorHits {
		if record.NormalizeID(vh.ID) == record.NormalizeID(rec.ID) {
			continue
		}
		if len(hits) == size {
			break
		}
		hits = append(hits, record.Hit{
			ID:     record.NormalizeID(vh.ID),
			Score:  float64(vh.Score),
			Source: map[string]interface{}{"subject": vh.Subject},
		})
	}

	trace, _ := json.Marshal(map[string]interface{}{
		"knn": map[string]interface{}{
			"input":   subject,
			"top_k":   size,
			"exclude": rec.ID,
		},
	})

	return hits, string(trace), nil
}

func (e *Engine) fetchRecord(ctx context.Context, id string) (*record.Record, error) {
	if e.cache != nil {
		if rec, ok, err := e.cache.GetRecord(ctx, id); err == nil && ok {
			metrics.CacheHits.WithLabelValues("record").Inc()
			return rec, nil
		}
		metrics.CacheMisses.WithLabelValues("record").Inc()
	}

	rec, err := e.store.GetByID(ctx, id)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("get").Inc()
		return nil, err
	}

	if rec != nil && e.cache != nil {
		if err := e.cache.SetRecord(ctx, rec); err != nil {
			logger.Warn("Failed to cache record", zap.Error(err))
		}
	}

	return rec, nil
}

func (e *Engine) recordRun(runID, recordID string, strategy similarity.Strategy, req SimilarRequest, size int, hits []record.Hit, outcome evaluation.Outcome, latency int) {
	if e.db == nil {
		return
	}

	err := e.db.InsertSearchRun(&models.SearchRun{
		ID:            runID,
		RecordID:      recordID,
		Strategy:      strategy.String(),
		SubjectBoost:  boostOr(req.SubjectBoost, e.cfg.SubjectBoost),
		TagBoost:      boostOr(req.TagBoost, e.cfg.TagsBoost),
		SentenceBoost: boostOr(req.SentenceBoost, e.cfg.SentencesBoost),
		ResultCount:   size,
		HitCount:      len(hits),
		FoundCount:    len(outcome.Found),
		RelatedCount:  outcome.TotalRelated,
		Fraction:      outcome.Fraction,
		LatencyMS:     latency,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		logger.Warn("Failed to record search run", zap.Error(err))
	}
}

// IndexStats is the diagnostics snapshot behind the statistics toggle.
type IndexStats struct {
	TotalRecords        int
	TagsPresent         int
	TagsUpdatedVia      int
	SentencesPresent    int
	SentencesUpdatedVia int
}

// Stats collects document counts for the statistics sidebar.
func (e *Engine) Stats(ctx context.Context) (*IndexStats, error) {
	total, err := trackedCount(func() (int, error) { return e.store.Count(ctx) })
	if err != nil {
		return nil, err
	}

	stats := &IndexStats{TotalRecords: total}

	counts := []struct {
		dst *int
		fn  func() (int, error)
	}{
		{&stats.TagsPresent, func() (int, error) { return e.store.CountFieldPresent(ctx, e.cfg.TagsField) }},
		{&stats.TagsUpdatedVia, func() (int, error) { return e.store.CountUpdatedVia(ctx, e.cfg.TagsField) }},
		{&stats.SentencesPresent, func() (int, error) { return e.store.CountFieldPresent(ctx, e.cfg.SentencesField) }},
		{&stats.SentencesUpdatedVia, func() (int, error) { return e.store.CountUpdatedVia(ctx, e.cfg.SentencesField) }},
	}
	for _, c := range counts {
		if *c.dst, err = trackedCount(c.fn); err != nil {
			return nil, err
		}
	}

	return stats, nil
}

// trackedCount runs one store count and tags failures in the
// store-error counter.
func trackedCount(fn func() (int, error)) (int, error) {
	n, err := fn()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("count").Inc()
	}
	return n, err
}

func boostOr(override *float64, fallback float64) float64 {
	if override != nil {
		return *override
	}
	return fallback
}
