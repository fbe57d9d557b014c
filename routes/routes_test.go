package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/parallelai/app"
	"github.com/upb/parallelai/config"
	"github.com/upb/parallelai/middleware"
	"github.com/upb/parallelai/services/providers"
	"go.uber.org/zap"
)

type noCredentials struct{}

func (noCredentials) CredentialsFor(context.Context, []string) (providers.CredentialSet, error) {
	return providers.CredentialSet{}, nil
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           8000,
			WriteTimeout:   10 * time.Second,
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Dispatch: config.DispatchConfig{
			Timeout:          time.Second,
			MaxTokens:        16,
			Temperature:      0.7,
			MaxResponseBytes: 1 << 20,
			TruncateChars:    1000,
		},
		Keys:          config.KeysConfig{File: filepath.Join(t.TempDir(), "keys.env")},
		Observability: config.ObservabilityConfig{LogLevel: "info"},
	}
	deps, err := app.NewDependencies(context.Background(), cfg, zap.NewNop(), app.WithCredentials(noCredentials{}))
	require.NoError(t, err)
	return SetupRoutes(deps)
}

func TestSetupRoutes(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
		{"status", http.MethodGet, "/api/v1/status", "", http.StatusOK},
		{"providers", http.MethodGet, "/api/v1/providers", "", http.StatusOK},
		{"broadcast without keys", http.MethodPost, "/api/v1/query", `{"query":"hi"}`, http.StatusOK},
		{"unknown provider", http.MethodPost, "/api/v1/query", `{"query":"hi","provider":"bard"}`, http.StatusNotFound},
		{"empty query", http.MethodPost, "/api/v1/query", `{"query":""}`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/api/v1/query", "", http.StatusMethodNotAllowed},
		{"unknown route", http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestSetupRoutes_BroadcastWithoutKeys(t *testing.T) {
	router := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewBufferString(`{"query":"hi"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response struct {
		Data struct {
			Success       bool   `json:"success"`
			ErrorCategory string `json:"error_category"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.False(t, response.Data.Success)
	assert.Equal(t, "NoCredential", response.Data.ErrorCategory)
}

func TestSetupRoutes_CORS(t *testing.T) {
	router := newRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/query", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
