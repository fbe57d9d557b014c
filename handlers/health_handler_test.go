package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/parallelai/internal/observability"
	"github.com/upb/parallelai/services"
	"github.com/upb/parallelai/services/query"
	"go.uber.org/zap"
)

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler(new(MockQueryService), nil, "test", zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.HandleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	data := response["data"].(map[string]interface{})
	assert.Equal(t, "healthy", data["status"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestHandleStatus(t *testing.T) {
	logger := zap.NewNop()

	t.Run("reports configured providers and metrics", func(t *testing.T) {
		mockService := new(MockQueryService)
		mockService.On("Providers", mock.Anything).Return([]query.ProviderStatus{
			{Name: "anthropic", Configured: true},
			{Name: "groq"},
			{Name: "openai", Configured: true},
		}, nil)

		metrics := observability.NewInMemoryMetrics()
		metrics.RecordOutcome(context.Background(), observability.OutcomeLabels{Provider: "openai"}, 100*time.Millisecond)

		handler := NewHealthHandler(mockService, metrics, "production", logger)
		handler.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

		req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		w := httptest.NewRecorder()
		handler.HandleStatus(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data StatusResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "operational", response.Data.Status)
		assert.Equal(t, "2026-01-02T03:04:05Z", response.Data.Timestamp)
		assert.Equal(t, "production", response.Data.Environment)
		assert.Equal(t, 3, response.Data.ProvidersRegistered)
		assert.Equal(t, []string{"anthropic", "openai"}, response.Data.ProvidersConfigured)
		require.Len(t, response.Data.Metrics, 1)
		assert.Equal(t, int64(1), response.Data.Metrics[0].Successes)
	})

	t.Run("lookup failure", func(t *testing.T) {
		mockService := new(MockQueryService)
		mockService.On("Providers", mock.Anything).
			Return(nil, services.WrapInternal("credential lookup failed", assert.AnError))

		handler := NewHealthHandler(mockService, nil, "test", logger)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		w := httptest.NewRecorder()
		handler.HandleStatus(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
