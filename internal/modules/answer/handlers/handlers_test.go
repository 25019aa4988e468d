package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/modules/answer"
	"github.com/aristath/smartwealth/internal/modules/plan"
)

type mockAnswerer struct {
	mock.Mock
}

func (m *mockAnswerer) Answer(ctx context.Context, raw plan.RawIntent) (*answer.Response, error) {
	args := m.Called(raw)
	resp, _ := args.Get(0).(*answer.Response)
	return resp, args.Error(1)
}

func serve(h *Handler, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleQuery(t *testing.T) {
	svc := new(mockAnswerer)
	svc.On("Answer", mock.MatchedBy(func(raw plan.RawIntent) bool {
		return raw["dataset"] == "scores" && raw["limit"] == float64(3)
	})).Return(&answer.Response{
		ID:        "abc",
		Rows:      []domain.Row{{"symbol": "AAPL"}},
		Mode:      domain.ModeSQL,
		SQL:       "SELECT 1",
		Followups: []string{},
	}, nil)

	w := serve(NewHandler(svc, zerolog.Nop()), `{"dataset": "scores", "limit": 3}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "abc", body["id"])
	assert.Equal(t, "sql", body["mode"])
	assert.Equal(t, "SELECT 1", body["sql"])
	assert.Len(t, body["rows"], 1)
	svc.AssertExpectations(t)
}

func TestHandleQuery_InvalidBody(t *testing.T) {
	svc := new(mockAnswerer)

	w := serve(NewHandler(svc, zerolog.Nop()), `{"dataset":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")

	w = serve(NewHandler(svc, zerolog.Nop()), `["not", "an", "object"]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Answer", mock.Anything)
}

func TestHandleQuery_NullBodyIsEmptyIntent(t *testing.T) {
	svc := new(mockAnswerer)
	svc.On("Answer", plan.RawIntent{}).Return(&answer.Response{ID: "x"}, nil)

	w := serve(NewHandler(svc, zerolog.Nop()), `null`)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestHandleQuery_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"fetch error", domain.NewFetchError("profiles", domain.ModeSQL, errors.New("down")), http.StatusBadGateway},
		{"other error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockAnswerer)
			svc.On("Answer", mock.Anything).Return(nil, tt.err)

			w := serve(NewHandler(svc, zerolog.Nop()), `{}`)
			assert.Equal(t, tt.status, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}
