package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHeaders(t *testing.T) {
	t.Run("bearer", func(t *testing.T) {
		h, err := BuildHeaders(chatDescriptor("openai"), "sk-test")
		require.NoError(t, err)

		assert.Equal(t, "application/json", h.Get("Content-Type"))
		assert.Equal(t, "Bearer sk-test", h.Get("Authorization"))
		assert.Empty(t, h.Get("x-api-key"))
	})

	t.Run("header pair with version", func(t *testing.T) {
		desc := Descriptor{
			ID:            "anthropic",
			AuthStyle:     AuthHeaderPair,
			APIKeyHeader:  "x-api-key",
			VersionHeader: "anthropic-version",
			Version:       "2023-06-01",
		}
		h, err := BuildHeaders(desc, "sk-ant")
		require.NoError(t, err)

		assert.Equal(t, "sk-ant", h.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", h.Get("anthropic-version"))
		assert.Empty(t, h.Get("Authorization"))
	})

	t.Run("header pair defaults", func(t *testing.T) {
		h, err := BuildHeaders(Descriptor{ID: "a", AuthStyle: AuthHeaderPair, Version: "v1"}, "k")
		require.NoError(t, err)

		assert.Equal(t, "k", h.Get("x-api-key"))
		assert.Equal(t, "v1", h.Get("anthropic-version"))
	})

	t.Run("extra headers", func(t *testing.T) {
		desc := chatDescriptor("openrouter")
		desc.ExtraHeaders = map[string]string{
			"HTTP-Referer": "https://github.com/parallelai-research/parallelai",
			"X-Title":      "ParallelAI Research",
		}
		h, err := BuildHeaders(desc, "sk-or")
		require.NoError(t, err)

		assert.Equal(t, "Bearer sk-or", h.Get("Authorization"))
		assert.Equal(t, "https://github.com/parallelai-research/parallelai", h.Get("HTTP-Referer"))
		assert.Equal(t, "ParallelAI Research", h.Get("X-Title"))
	})

	t.Run("unsupported style", func(t *testing.T) {
		_, err := BuildHeaders(Descriptor{ID: "x", AuthStyle: "basic"}, "k")
		assert.Error(t, err)
	})
}
