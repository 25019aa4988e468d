// Package handlers provides HTTP handlers for dataset catalogs, snapshots and views.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"

	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/modules/cachestore"
	"github.com/aristath/smartwealth/internal/modules/datasets"
	"github.com/aristath/smartwealth/internal/modules/schema"
)

const (
	defaultWindowDays = 60
	maxWindowDays     = 366
)

// DatasetService is the dataset service surface used by the handlers
type DatasetService interface {
	Catalog() []schema.Descriptor
	Describe(dataset string) (schema.Descriptor, bool)
	Snapshot(ctx context.Context, dataset string, refresh bool) (*cachestore.Snapshot, error)
	Rows(ctx context.Context, dataset string, refresh bool) (*datasets.Listing, error)
	Status() []cachestore.Status
	EarningsWindow(ctx context.Context, from, to time.Time, refresh bool) (*datasets.Window, error)
	VendorCompanies(ctx context.Context) ([]datasets.Company, error)
	RankedScores(ctx context.Context, sector string, refresh bool) (*datasets.Listing, error)
	SearchProfiles(ctx context.Context, q string, refresh bool) (*datasets.Listing, error)
	ResolveProfile(ctx context.Context, name string) ([]string, error)
}

// Handler handles dataset HTTP requests
type Handler struct {
	service DatasetService
	now     func() time.Time
	log     zerolog.Logger
}

// NewHandler creates a new dataset handler
func NewHandler(service DatasetService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		now:     time.Now,
		log:     log.With().Str("handler", "datasets").Logger(),
	}
}

func refreshRequested(r *http.Request) bool {
	v := r.URL.Query().Get("refresh")
	return v == "1" || strings.EqualFold(v, "true")
}

// HandleCatalog handles GET /api/datasets
func (h *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := h.service.Catalog()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(catalog),
		"datasets": catalog,
	})
}

// HandleDescribe handles GET /api/datasets/{dataset}
func (h *Handler) HandleDescribe(w http.ResponseWriter, r *http.Request) {
	desc, ok := h.service.Describe(chi.URLParam(r, "dataset"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "unknown dataset")
		return
	}
	h.writeJSON(w, http.StatusOK, desc)
}

// HandleRows handles GET /api/datasets/{dataset}/rows
func (h *Handler) HandleRows(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")
	listing, err := h.service.Rows(r.Context(), dataset, refreshRequested(r))
	if err != nil {
		h.writeFetchError(w, dataset, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listing)
}

// HandleCacheStatus handles GET /api/cache/status
func (h *Handler) HandleCacheStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"datasets": h.service.Status(),
	})
}

// HandleCacheRefresh handles POST /api/cache/{dataset}/refresh
func (h *Handler) HandleCacheRefresh(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")
	snap, err := h.service.Snapshot(r.Context(), dataset, true)
	if err != nil {
		h.writeFetchError(w, dataset, err)
		return
	}

	h.log.Info().Str("dataset", dataset).Int("rows", snap.Len()).Msg("Dataset refreshed on request")
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"dataset":    snap.Dataset(),
		"rows":       snap.Len(),
		"fetched_at": snap.FetchedAt(),
	})
}

// HandleEarningsWindow handles GET /api/earnings/window
func (h *Handler) HandleEarningsWindow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	days := defaultWindowDays
	if raw := q.Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxWindowDays {
			h.writeError(w, http.StatusBadRequest, "days must be an integer between 0 and 366")
			return
		}
		days = n
	}

	var from, to time.Time
	if q.Get("from") != "" && q.Get("to") != "" {
		var err error
		if from, err = cast.ToTimeE(q.Get("from")); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid from date")
			return
		}
		if to, err = cast.ToTimeE(q.Get("to")); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid to date")
			return
		}
		if to.Before(from) {
			h.writeError(w, http.StatusBadRequest, "to must not be before from")
			return
		}
	} else {
		from = h.now().UTC().AddDate(0, 0, -1)
		to = from.AddDate(0, 0, days)
	}

	window, err := h.service.EarningsWindow(r.Context(), from, to, refreshRequested(r))
	if err != nil {
		h.writeFetchError(w, domain.DatasetEarnings, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	h.writeJSON(w, http.StatusOK, window)
}

// HandleVendorCompanies handles GET /api/vendors/companies
func (h *Handler) HandleVendorCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.VendorCompanies(r.Context())
	if err != nil {
		h.writeFetchError(w, domain.DatasetVendors, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(companies),
		"items": companies,
	})
}

// HandleRankedScores handles GET /api/scores/ranked
func (h *Handler) HandleRankedScores(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.RankedScores(r.Context(), r.URL.Query().Get("sector"), refreshRequested(r))
	if err != nil {
		h.writeFetchError(w, domain.DatasetScores, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=120")
	h.writeJSON(w, http.StatusOK, listing)
}

// HandleSearchProfiles handles GET /api/profiles/search
func (h *Handler) HandleSearchProfiles(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.SearchProfiles(r.Context(), r.URL.Query().Get("q"), refreshRequested(r))
	if err != nil {
		h.writeFetchError(w, domain.DatasetProfiles, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listing)
}

// HandleResolveProfile handles GET /api/profiles/resolve
func (h *Handler) HandleResolveProfile(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	tickers, err := h.service.ResolveProfile(r.Context(), name)
	if err != nil {
		h.writeFetchError(w, domain.DatasetProfiles, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    name,
		"tickers": tickers,
	})
}

func (h *Handler) writeFetchError(w http.ResponseWriter, dataset string, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownDataset):
		h.writeError(w, http.StatusNotFound, "unknown dataset")
	case domain.IsFetchError(err):
		h.log.Error().Err(err).Str("dataset", dataset).Msg("Failed to load dataset")
		h.writeError(w, http.StatusBadGateway, "failed to load dataset "+dataset)
	default:
		h.log.Error().Err(err).Str("dataset", dataset).Msg("Dataset request failed")
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
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
