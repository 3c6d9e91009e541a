package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/issuelens/backend/internal/query"
	"github.com/issuelens/backend/internal/storage/sqlite"
	"github.com/issuelens/backend/pkg/logger"
)

type StatsHandler struct {
	engine  *query.Engine
	db      *sqlite.Client
	enabled bool
}

func NewStatsHandler(engine *query.Engine, db *sqlite.Client, enabled bool) *StatsHandler {
	return &StatsHandler{engine: engine, db: db, enabled: enabled}
}

// GetStats returns index-level document counts. Behind the statistics
// toggle because the counts run full-index queries.
func (h *StatsHandler) GetStats(c *fiber.Ctx) error {
	if !h.enabled {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Statistics are disabled",
		})
	}

	stats, err := h.engine.Stats(c.Context())
	if err != nil {
		logger.Error("Failed to collect index statistics", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"total_records":         stats.TotalRecords,
		"tags_present":          stats.TagsPresent,
		"tags_updated_via":      stats.TagsUpdatedVia,
		"sentences_present":     stats.SentencesPresent,
		"sentences_updated_via": stats.SentencesUpdatedVia,
	})
}

// GetHistory returns the most recent recorded search runs.
func (h *StatsHandler) GetHistory(c *fiber.Ctx) error {
	if h.db == nil {
		return c.JSON(fiber.Map{"runs": []interface{}{}})
	}

	limit := c.QueryInt("limit", 50)

	runs, err := h.db.ListRecentRuns(limit)
	if err != nil {
		logger.Error("Failed to list search runs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load search history",
		})
	}

	out := make([]fiber.Map, 0, len(runs))
	for _, run := range runs {
		out = append(out, fiber.Map{
			"id":             run.ID,
			"record_id":      run.RecordID,
			"strategy":       run.Strategy,
			"subject_boost":  run.SubjectBoost,
			"tag_boost":      run.TagBoost,
			"sentence_boost": run.SentenceBoost,
			"result_count":   run.ResultCount,
			"hit_count":      run.HitCount,
			"found_count":    run.FoundCount,
			"related_count":  run.RelatedCount,
			"fraction":       run.Fraction,
			"latency_ms":     run.LatencyMS,
			"created_at":     run.CreatedAt.Unix(),
		})
	}

	return c.JSON(fiber.Map{"runs": out})
}
