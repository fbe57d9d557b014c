package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/parallelai/services/providers"
)

func testDescriptor() providers.Descriptor {
	return providers.Descriptor{
		ID:           "groq",
		Endpoint:     "https://api.groq.com/openai/v1/chat/completions",
		DefaultModel: "llama-3.1-8b-instant",
		AuthStyle:    providers.AuthBearer,
		Family:       providers.FamilyChat,
	}
}

func TestAdapter_Family(t *testing.T) {
	assert.Equal(t, providers.FamilyChat, NewAdapter().Family())
}

func TestAdapter_BuildRequest(t *testing.T) {
	adapter := NewAdapter()
	params := providers.Params{MaxTokens: 1000, Temperature: 0.7}

	t.Run("default model", func(t *testing.T) {
		req, err := adapter.BuildRequest(testDescriptor(), "gsk-1", "What is 2+2?", "", params)
		require.NoError(t, err)

		assert.Equal(t, "https://api.groq.com/openai/v1/chat/completions", req.URL)
		assert.Equal(t, "Bearer gsk-1", req.Header.Get("Authorization"))
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

		raw, err := json.Marshal(req.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"model": "llama-3.1-8b-instant",
			"messages": [{"role": "user", "content": "What is 2+2?"}],
			"temperature": 0.7,
			"max_tokens": 1000
		}`, string(raw))
	})

	t.Run("model override", func(t *testing.T) {
		req, err := adapter.BuildRequest(testDescriptor(), "gsk-1", "hi", "llama-3.3-70b", params)
		require.NoError(t, err)
		assert.Equal(t, "llama-3.3-70b", req.Body.(*ChatRequest).Model)
	})

	t.Run("bad auth style", func(t *testing.T) {
		desc := testDescriptor()
		desc.AuthStyle = "basic"
		_, err := adapter.BuildRequest(desc, "k", "hi", "", params)
		assert.Error(t, err)
	})
}

func TestAdapter_ParseResponse(t *testing.T) {
	adapter := NewAdapter()
	desc := testDescriptor()

	tests := []struct {
		name         string
		status       int
		body         string
		wantOK       bool
		wantText     string
		wantModel    string
		wantUsage    map[string]float64
		wantCategory providers.ErrorCategory
	}{
		{
			name:   "success",
			status: 200,
			body: `{"id":"c1","model":"llama-3.1-8b-instant-0001","choices":[{"index":0,
				"message":{"role":"assistant","content":"4"},"finish_reason":"stop"}],
				"usage":{"prompt_tokens":12,"completion_tokens":1,"total_tokens":13,"queue_time":0.01,"x":"y"}}`,
			wantOK:    true,
			wantText:  "4",
			wantModel: "llama-3.1-8b-instant-0001",
			wantUsage: map[string]float64{"prompt_tokens": 12, "completion_tokens": 1, "total_tokens": 13, "queue_time": 0.01},
		},
		{
			name:      "missing model falls back to default",
			status:    200,
			body:      `{"choices":[{"message":{"content":""}}]}`,
			wantOK:    true,
			wantText:  "",
			wantModel: "llama-3.1-8b-instant",
			wantUsage: map[string]float64{},
		},
		{
			name:         "no choices",
			status:       200,
			body:         `{"choices":[]}`,
			wantCategory: providers.CategoryParseError,
		},
		{
			name:         "null content",
			status:       200,
			body:         `{"choices":[{"message":{"content":null}}]}`,
			wantCategory: providers.CategoryParseError,
		},
		{
			name:         "not json",
			status:       200,
			body:         `<html>oops</html>`,
			wantCategory: providers.CategoryParseError,
		},
		{
			name:         "unauthorized",
			status:       401,
			body:         `{"error":{"message":"Invalid API Key"}}`,
			wantCategory: providers.CategoryAuthError,
		},
		{
			name:         "rate limited",
			status:       429,
			body:         `{"error":"rate limit"}`,
			wantCategory: providers.CategoryRateLimited,
		},
		{
			name:         "server error",
			status:       500,
			body:         `boom`,
			wantCategory: providers.CategoryProviderError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := adapter.ParseResponse(desc, tt.status, []byte(tt.body))
			assert.Equal(t, "groq", o.ProviderID)

			if !tt.wantOK {
				require.False(t, o.OK())
				assert.Equal(t, tt.wantCategory, o.Category())
				return
			}

			require.True(t, o.OK(), "unexpected failure: %+v", o.Failure)
			assert.Equal(t, tt.wantText, o.Completion.Text)
			assert.Equal(t, tt.wantModel, o.Completion.Model)
			assert.Equal(t, tt.wantUsage, o.Completion.Usage)
		})
	}
}
