package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/modules/cachestore"
	"github.com/aristath/smartwealth/internal/modules/datasets"
	"github.com/aristath/smartwealth/internal/modules/schema"
)

func setupTestRouter(t *testing.T) (*chi.Mux, *Handler) {
	t.Helper()
	log := zerolog.Nop()

	static := func(rows []domain.Row) cachestore.Loader {
		return func(ctx context.Context) ([]domain.Row, error) { return rows, nil }
	}

	store := cachestore.New(log)
	require.NoError(t, store.Register(domain.DatasetProfiles, static([]domain.Row{
		{"symbol": "AAPL", "companyName": "Apple Inc.", "sector": "Technology"},
		{"symbol": "XOM", "companyName": "Exxon Mobil", "sector": "Energy"},
	}), time.Hour))
	require.NoError(t, store.Register(domain.DatasetScores, static([]domain.Row{
		{"symbol": "XOM", "sector": "Energy", "overall_score": 55.0},
		{"symbol": "AAPL", "sector": "Technology", "overall_score": 81.0},
	}), time.Hour))
	require.NoError(t, store.Register(domain.DatasetEarnings, static([]domain.Row{
		{"symbol": "AAPL", "event_date": "2025-04-30"},
		{"symbol": "MSFT", "event_date": "2025-09-30"},
	}), time.Hour))
	require.NoError(t, store.Register(domain.DatasetVendors, func(ctx context.Context) ([]domain.Row, error) {
		return nil, errors.New("warehouse unavailable")
	}, time.Hour))

	registry, err := schema.NewDefaultRegistry(nil)
	require.NoError(t, err)

	h := NewHandler(datasets.NewService(store, registry, log), log)
	h.now = func() time.Time { return time.Date(2025, 4, 21, 12, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r, h
}

func doRequest(t *testing.T, r http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

func TestHandleCatalog(t *testing.T) {
	r, _ := setupTestRouter(t)

	w, body := doRequest(t, r, http.MethodGet, "/api/datasets/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(4), body["count"])
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestHandleDescribe(t *testing.T) {
	r, _ := setupTestRouter(t)

	w, body := doRequest(t, r, http.MethodGet, "/api/datasets/scores")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "scores", body["key"])
	assert.NotContains(t, body, "table")

	w, body = doRequest(t, r, http.MethodGet, "/api/datasets/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown dataset", body["error"])
}

func TestHandleRows(t *testing.T) {
	r, _ := setupTestRouter(t)

	w, body := doRequest(t, r, http.MethodGet, "/api/datasets/profiles/rows")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["count"])
	assert.NotNil(t, body["cached_at"])

	w, _ = doRequest(t, r, http.MethodGet, "/api/datasets/unknown/rows")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = doRequest(t, r, http.MethodGet, "/api/datasets/vendors/rows")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "failed to load dataset vendors", body["error"])
}

func TestHandleCacheRefreshAndStatus(t *testing.T) {
	r, _ := setupTestRouter(t)

	w, body := doRequest(t, r, http.MethodPost, "/api/cache/scores/refresh")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "scores", body["dataset"])
	assert.Equal(t, float64(2), body["rows"])

	w, body = doRequest(t, r, http.MethodGet, "/api/cache/status")
	assert.Equal(t, http.StatusOK, w.Code)
	statuses, ok := body["datasets"].([]interface{})
	require.True(t, ok)
	require.Len(t, statuses, 4)

	loaded := map[string]bool{}
	for _, s := range statuses {
		entry := s.(map[string]interface{})
		loaded[entry["dataset"].(string)] = entry["loaded"].(bool)
	}
	assert.True(t, loaded["scores"])
	assert.False(t, loaded["profiles"])

	w, _ = doRequest(t, r, http.MethodPost, "/api/cache/vendors/refresh")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandleEarningsWindow(t *testing.T) {
	r, _ := setupTestRouter(t)

	t.Run("default window starts yesterday", func(t *testing.T) {
		w, body := doRequest(t, r, http.MethodGet, "/api/earnings/window")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2025-04-20", body["from"])
		assert.Equal(t, "2025-06-19", body["to"])
		assert.Equal(t, float64(1), body["count"])
		assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))
	})

	t.Run("explicit range", func(t *testing.T) {
		w, body := doRequest(t, r, http.MethodGet, "/api/earnings/window?from=2025-01-01&to=2025-12-31")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(2), body["count"])
	})

	t.Run("days", func(t *testing.T) {
		w, body := doRequest(t, r, http.MethodGet, "/api/earnings/window?days=366")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(2), body["count"])
	})

	for _, target := range []string{
		"/api/earnings/window?days=abc",
		"/api/earnings/window?days=367",
		"/api/earnings/window?from=garbage&to=2025-12-31",
		"/api/earnings/window?from=2025-12-31&to=2025-01-01",
	} {
		w, body := doRequest(t, r, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.NotEmpty(t, body["error"], target)
	}
}

func TestHandleVendorCompanies_FetchError(t *testing.T) {
	r, _ := setupTestRouter(t)

	w, body := doRequest(t, r, http.MethodGet, "/api/vendors/companies")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, body["error"], "vendors")
}

func TestHandleRankedScores(t *testing.T) {
	r, _ := setupTestRouter(t)

	w, body := doRequest(t, r, http.MethodGet, "/api/scores/ranked")
	assert.Equal(t, http.StatusOK, w.Code)
	items := body["items"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, "AAPL", items[0].(map[string]interface{})["symbol"])

	_, body = doRequest(t, r, http.MethodGet, "/api/scores/ranked?sector=energy")
	assert.Equal(t, float64(1), body["count"])
}

func TestHandleProfiles(t *testing.T) {
	r, _ := setupTestRouter(t)

	w, body := doRequest(t, r, http.MethodGet, "/api/profiles/search?q=exxon")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])

	w, body = doRequest(t, r, http.MethodGet, "/api/profiles/resolve?name=Apple")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"AAPL"}, body["tickers"])

	w, body = doRequest(t, r, http.MethodGet, "/api/profiles/resolve?name=%20")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name is required", body["error"])
}
