package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/technova/supportbot/internal/log"
	"github.com/technova/supportbot/internal/rag"
)

// maxAskBodyBytes bounds the request body to keep conversations sane.
const maxAskBodyBytes = 1 << 20 // 1 MB

// Asker answers a conversation; satisfied by *rag.Chain.
type Asker interface {
	Ask(ctx context.Context, turns []rag.Turn) (rag.Result, error)
}

// askRequest is the POST /ask body.
type askRequest struct {
	Messages []rag.Turn `json:"messages"`
}

// askHandler serves the question-answering endpoint.
type askHandler struct {
	asker  Asker
	logger log.Logger
}

// handleAsk answers the most recent user question in the posted
// conversation. Requests without a non-empty messages array get 400;
// any pipeline failure maps to an opaque 500, details stay in the log.
func (h *askHandler) handleAsk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAskBodyBytes)

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "messages required", "", h.logger)
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages required", "", h.logger)
		return
	}

	result, err := h.asker.Ask(r.Context(), req.Messages)
	if err != nil {
		h.logger.Error("answering question failed",
			"error", err,
			"request_id", requestIDFromContext(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result, h.logger)
}
