package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/issuelens/backend/internal/query"
	"github.com/issuelens/backend/pkg/logger"
)

type RecordHandler struct {
	engine *query.Engine
}

func NewRecordHandler(engine *query.Engine) *RecordHandler {
	return &RecordHandler{engine: engine}
}

// GetRecord returns the reference record with its candidate tokens and
// ground-truth related ids, ready to seed a session.
func (h *RecordHandler) GetRecord(c *fiber.Ctx) error {
	id := c.Params("id")

	view, err := h.engine.Lookup(c.Context(), id)
	if err != nil {
		return respondLookupError(c, id, err)
	}

	return c.JSON(fiber.Map{
		"id":          view.Record.ID,
		"subject":     view.Record.Subject(),
		"rendered":    view.Rendered,
		"tags":        view.Tags,
		"sentences":   view.Sentences,
		"related_ids": view.RelatedIDs,
	})
}

// respondLookupError maps the engine error taxonomy onto HTTP
// responses: not-found is informational, malformed input is a client
// error, anything else is a store fault surfaced verbatim.
func respondLookupError(c *fiber.Ctx, id string, err error) error {
	switch {
	case errors.Is(err, query.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "No record found with ID=" + id,
		})
	case errors.Is(err, query.ErrMalformedID):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, query.ErrVectorDisabled):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		logger.Error("Store request failed", zap.String("record_id", id), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
