package openai

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/upb/parallelai/services/providers"
)

// Adapter speaks the chat-completions shape used by OpenAI and the
// OpenAI-compatible providers (groq, together, openrouter)
type Adapter struct{}

// NewAdapter creates a chat-completions adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Family returns providers.FamilyChat
func (a *Adapter) Family() providers.Family {
	return providers.FamilyChat
}

// BuildRequest builds a chat completion call
func (a *Adapter) BuildRequest(desc providers.Descriptor, credential, prompt, model string, params providers.Params) (*providers.Request, error) {
	header, err := providers.BuildHeaders(desc, credential)
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = desc.DefaultModel
	}

	return &providers.Request{
		URL:    desc.Endpoint,
		Header: header,
		Body: &ChatRequest{
			Model: model,
			Messages: []ChatMessage{
				{Role: "user", Content: prompt},
			},
			Temperature: params.Temperature,
			MaxTokens:   params.MaxTokens,
		},
	}, nil
}

// ParseResponse extracts choices[0].message.content
func (a *Adapter) ParseResponse(desc providers.Descriptor, status int, body []byte) providers.Outcome {
	if status != http.StatusOK {
		return providers.ClassifyStatus(desc.ID, status, body)
	}

	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return providers.ParseFailure(desc.ID, err)
	}
	if len(resp.Choices) == 0 {
		return providers.ParseFailure(desc.ID, errors.New("no choices in response"))
	}
	content := resp.Choices[0].Message.Content
	if content == nil {
		return providers.ParseFailure(desc.ID, errors.New("choices[0].message.content missing"))
	}

	model := resp.Model
	if model == "" {
		model = desc.DefaultModel
	}

	return providers.Succeeded(desc.ID, *content, model, providers.NumericUsage(resp.Usage))
}

// Chat-completions wire types

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResponse struct {
	ID      string                 `json:"id"`
	Model   string                 `json:"model"`
	Choices []ChatChoice           `json:"choices"`
	Usage   map[string]interface{} `json:"usage"`
}

type ChatChoice struct {
	Index        int                 `json:"index"`
	Message      ChatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type ChatResponseMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}
