package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/issuelens/backend/internal/query"
	"github.com/issuelens/backend/internal/session"
	"github.com/issuelens/backend/pkg/logger"
)

// SessionHandler drives one interactive exploration session per
// WebSocket connection. The connection's read loop serializes inputs,
// so each action runs one complete pass before the next is accepted;
// no overlapping in-flight searches exist for a session.
type SessionHandler struct {
	engine   *query.Engine
	defaults session.Defaults
}

func NewSessionHandler(engine *query.Engine, defaults session.Defaults) *SessionHandler {
	return &SessionHandler{engine: engine, defaults: defaults}
}

// jsonWriter is the send side of a session connection.
type jsonWriter interface {
	WriteJSON(v interface{}) error
}

// writeJSON sends v and logs a failed write; a broken connection also
// surfaces on the next read, which ends the session loop.
func writeJSON(w jsonWriter, v interface{}) {
	if err := w.WriteJSON(v); err != nil {
		logger.Debug("Session write failed", zap.Error(err))
	}
}

type sessionMessage struct {
	Type  string  `json:"type"`
	ID    string  `json:"id,omitempty"`
	Group string  `json:"group,omitempty"`
	Index int     `json:"index,omitempty"`
	Label string  `json:"label,omitempty"`
	Name  string  `json:"name,omitempty"`
	Value float64 `json:"value,omitempty"`
}

func (h *SessionHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("Session connection established")

	defer func() {
		c.Close()
		logger.Info("Session connection closed")
	}()

	state := session.New(h.defaults)

	for {
		var msg sessionMessage
		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("Session read ended", zap.Error(err))
			break
		}

		switch msg.Type {
		case "load":
			h.handleLoad(c, state, msg.ID)
		case "toggle":
			state.Toggle(msg.Group, msg.Index)
			h.sendState(c, state)
		case "edit":
			state.Edit(msg.Group, msg.Index, msg.Label)
			h.sendState(c, state)
		case "boost":
			h.handleBoost(c, state, msg.Name, msg.Value)
		case "search":
			h.handleSearch(c, state)
		default:
			h.sendError(c, "Unknown message type: "+msg.Type)
		}
	}
}

// handleLoad binds the session to a new reference record, resetting
// all token selections and boosts to freshly-derived defaults.
func (h *SessionHandler) handleLoad(c *websocket.Conn, state *session.State, id string) {
	view, err := h.engine.Lookup(context.Background(), id)
	if err != nil {
		h.sendLookupError(c, id, err)
		return
	}

	state.Reset(view.Record.ID, view.Tags, view.Sentences, h.defaults)

	writeJSON(c, map[string]interface{}{
		"type":        "record",
		"rendered":    view.Rendered,
		"related_ids": view.RelatedIDs,
		"state":       state,
	})
}

func (h *SessionHandler) handleBoost(c *websocket.Conn, state *session.State, name string, value float64) {
	switch name {
	case "subject":
		state.SubjectBoost = value
	case "tags":
		state.TagBoost = value
	case "sentences":
		state.SentenceBoost = value
	case "result_count":
		state.ResultCount = int(value)
	default:
		h.sendError(c, "Unknown boost: "+name)
		return
	}
	h.sendState(c, state)
}

func (h *SessionHandler) handleSearch(c *websocket.Conn, state *session.State) {
	if state.RecordID == "" {
		h.sendError(c, "Load a record before searching")
		return
	}

	resp, err := h.engine.FindSimilar(context.Background(), query.SimilarRequest{
		RecordID:      state.RecordID,
		Tags:          state.SelectedTags(),
		Sentences:     state.SelectedSentences(),
		SubjectBoost:  &state.SubjectBoost,
		TagBoost:      &state.TagBoost,
		SentenceBoost: &state.SentenceBoost,
		ResultCount:   state.ResultCount,
		Debug:         state.Debug,
	})
	if err != nil {
		h.sendLookupError(c, state.RecordID, err)
		return
	}

	out := map[string]interface{}{
		"type":        "results",
		"run_id":      resp.RunID,
		"rendered":    resp.Rendered,
		"found":       resp.Found,
		"related_ids": resp.RelatedIDs,
		"fraction":    resp.Fraction,
		"latency_ms":  resp.LatencyMS,
	}
	if state.Debug {
		out["trace"] = resp.Trace
	}

	writeJSON(c, out)
}

func (h *SessionHandler) sendState(c jsonWriter, state *session.State) {
	writeJSON(c, map[string]interface{}{
		"type":  "state",
		"state": state,
	})
}

func (h *SessionHandler) sendLookupError(c jsonWriter, id string, err error) {
	switch {
	case errors.Is(err, query.ErrNotFound):
		h.sendError(c, "No record found with ID="+id)
	case errors.Is(err, query.ErrMalformedID), errors.Is(err, query.ErrVectorDisabled):
		h.sendError(c, err.Error())
	default:
		logger.Error("Session store request failed", zap.String("record_id", id), zap.Error(err))
		h.sendError(c, err.Error())
	}
}

func (h *SessionHandler) sendError(c jsonWriter, errorMsg string) {
	writeJSON(c, map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
