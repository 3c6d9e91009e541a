package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/issuelens/backend/internal/query"
	"github.com/issuelens/backend/pkg/logger"
)

type SimilarHandler struct {
	engine  *query.Engine
	sweeper *query.Sweeper
}

func NewSimilarHandler(engine *query.Engine, sweeper *query.Sweeper) *SimilarHandler {
	return &SimilarHandler{engine: engine, sweeper: sweeper}
}

type similarRequest struct {
	RecordID      string   `json:"record_id"`
	Tags          []string `json:"tags"`
	Sentences     []string `json:"sentences"`
	SubjectBoost  *float64 `json:"subject_boost"`
	TagBoost      *float64 `json:"tag_boost"`
	SentenceBoost *float64 `json:"sentence_boost"`
	ResultCount   int      `json:"result_count"`
	Strategy      string   `json:"strategy"`
	ExcludeIDs    []string `json:"exclude_ids"`
	Debug         bool     `json:"debug"`
}

// FindSimilar runs one full fetch-build-search-evaluate-render pass.
func (h *SimilarHandler) FindSimilar(c *fiber.Ctx) error {
	var req similarRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.RecordID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "record_id is required",
		})
	}

	resp, err := h.engine.FindSimilar(c.Context(), query.SimilarRequest{
		RecordID:      req.RecordID,
		Tags:          req.Tags,
		Sentences:     req.Sentences,
		SubjectBoost:  req.SubjectBoost,
		TagBoost:      req.TagBoost,
		SentenceBoost: req.SentenceBoost,
		ResultCount:   req.ResultCount,
		Strategy:      req.Strategy,
		ExcludeIDs:    req.ExcludeIDs,
		Debug:         req.Debug,
	})
	if err != nil {
		return respondLookupError(c, req.RecordID, err)
	}

	body := fiber.Map{
		"run_id":      resp.RunID,
		"reference":   resp.Reference,
		"hits":        hitList(resp),
		"found":       resp.Found,
		"related_ids": resp.RelatedIDs,
		"fraction":    resp.Fraction,
		"rendered":    resp.Rendered,
		"strategy":    resp.Strategy,
		"latency_ms":  resp.LatencyMS,
	}
	if req.Debug {
		body["trace"] = resp.Trace
	}

	return c.JSON(body)
}

// Sweep evaluates the configured boost grid for one record.
func (h *SimilarHandler) Sweep(c *fiber.Ctx) error {
	var req struct {
		RecordID string `json:"record_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.RecordID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "record_id is required",
		})
	}

	report, err := h.sweeper.Run(c.Context(), req.RecordID)
	if err != nil {
		return respondLookupError(c, req.RecordID, err)
	}

	return c.JSON(fiber.Map{
		"record_id": report.RecordID,
		"results":   report.Results,
		"best":      report.Best,
		"rendered":  report.Render(),
	})
}

func hitList(resp *query.SimilarResponse) []fiber.Map {
	hits := make([]fiber.Map, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		entry := fiber.Map{
			"id":    hit.ID,
			"score": hit.Score,
		}
		if hit.Explanation != nil {
			entry["explanation"] = hit.Explanation
		}
		hits = append(hits, entry)
	}
	return hits
}
