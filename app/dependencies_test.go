package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/parallelai/config"
	"github.com/upb/parallelai/services/keystore"
	"github.com/upb/parallelai/services/providers"
	"github.com/upb/parallelai/services/query"
	"go.uber.org/zap/zaptest"
)

type staticCredentials providers.CredentialSet

func (s staticCredentials) CredentialsFor(context.Context, []string) (providers.CredentialSet, error) {
	return providers.CredentialSet(s), nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{Host: "127.0.0.1", Port: 8000},
		Dispatch: config.DispatchConfig{
			Timeout:          5 * time.Second,
			MaxTokens:        64,
			Temperature:      0.7,
			MaxResponseBytes: 1 << 20,
			TruncateChars:    1000,
		},
		Keys:          config.KeysConfig{File: filepath.Join(t.TempDir(), "keys.env")},
		Observability: config.ObservabilityConfig{LogLevel: "debug", LogFormat: "text"},
	}
}

func TestNewDependencies(t *testing.T) {
	t.Run("builtin providers with default credential chain", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)

		deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NotNil(t, deps)

		assert.Equal(t, []string{"anthropic", "groq", "openai", "openrouter", "together"}, deps.Registry.IDs())
		assert.NotNil(t, deps.Dispatcher)
		assert.NotNil(t, deps.Aggregator)
		assert.NotNil(t, deps.Metrics)
		assert.NotNil(t, deps.Query)
		assert.IsType(t, keystore.Chain{}, deps.Credentials)

		assert.NoError(t, deps.Close(ctx))
	})

	t.Run("invalid providers file", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Dispatch.ProvidersFile = filepath.Join(t.TempDir(), "missing.yaml")

		_, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
	})
}

func TestNewDependencies_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-local", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model":   "local-model",
			"choices": []map[string]interface{}{{"message": map[string]string{"content": "pong"}}},
			"usage":   map[string]interface{}{"total_tokens": 3},
		})
	}))
	defer srv.Close()

	file := filepath.Join(t.TempDir(), "providers.yaml")
	content := fmt.Sprintf(`providers:
  - id: local
    endpoint: %s
    default_model: local-model
    auth_style: bearer
    family: chat
`, srv.URL)
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	cfg := testConfig(t)
	cfg.Dispatch.ProvidersFile = file

	deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t),
		WithHTTPClient(srv.Client()),
		WithCredentials(staticCredentials{"local": "sk-local"}))
	require.NoError(t, err)

	result, err := deps.Query.QueryAll(context.Background(), query.Request{Query: "ping"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.TotalProviders)
	assert.Equal(t, "pong", result.Results["local"].Response)

	stats := deps.Metrics.Snapshot()
	require.Len(t, stats, 1)
	assert.Equal(t, "local", stats[0].Provider)
	assert.Equal(t, int64(1), stats[0].Successes)
}
