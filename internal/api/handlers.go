package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/greenleafbv/shopassist/internal/models"
)

// defaultHistoryLimit bounds conversation history responses without an
// explicit limit parameter.
const defaultHistoryLimit = 50

// chatHandler handles POST /chat: it decodes one inbound message and runs it
// through the engine. The HTTP status is 200 whenever the pipeline produced a
// response envelope; conversational failures live inside the envelope.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("chatHandler invoked", "method", r.Method, "path", r.URL.Path)

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	var inbound models.InboundMessage
	if err := json.NewDecoder(r.Body).Decode(&inbound); err != nil {
		slog.Warn("chatHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	outbound := s.engine.ProcessMessage(r.Context(), inbound)
	writeJSONResponse(w, http.StatusOK, outbound)
}

// conversationHandler handles GET /conversations/{id}: it returns the
// persisted turns, oldest first, masked as stored.
func (s *Server) conversationHandler(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")
	slog.Debug("conversationHandler invoked", "conversationID", conversationID)

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid limit parameter"))
			return
		}
		limit = parsed
	}

	turns, err := s.convStore.Read(r.Context(), conversationID, limit)
	if err != nil {
		slog.Error("conversationHandler read failed", "error", err, "conversationID", conversationID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to read conversation"))
		return
	}
	if len(turns) == 0 {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Conversation not found"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(models.Conversation{
		ID:    conversationID,
		Turns: turns,
	}))
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("healthy", nil))
}
