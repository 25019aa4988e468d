// Package handlers provides the HTTP handler for answering intents.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/modules/answer"
	"github.com/aristath/smartwealth/internal/modules/plan"
)

const maxBodyBytes = 64 << 10

// Answerer answers raw intents
type Answerer interface {
	Answer(ctx context.Context, raw plan.RawIntent) (*answer.Response, error)
}

// Handler handles query HTTP requests
type Handler struct {
	service Answerer
	log     zerolog.Logger
}

// NewHandler creates a new query handler
func NewHandler(service Answerer, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "answer").Logger(),
	}
}

// HandleQuery handles POST /api/query
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var raw plan.RawIntent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if raw == nil {
		raw = plan.RawIntent{}
	}

	resp, err := h.service.Answer(r.Context(), raw)
	if err != nil {
		if domain.IsFetchError(err) {
			h.log.Error().Err(err).Msg("Failed to fetch rows")
			h.writeError(w, http.StatusBadGateway, "failed to fetch rows")
			return
		}
		h.log.Error().Err(err).Msg("Failed to answer intent")
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
