package anthropic

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/upb/parallelai/services/providers"
)

// Adapter speaks the Anthropic messages shape
type Adapter struct{}

// NewAdapter creates a messages adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Family returns providers.FamilyMessages
func (a *Adapter) Family() providers.Family {
	return providers.FamilyMessages
}

// BuildRequest builds a messages call. Temperature is not sent.
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
		Body: &MessagesRequest{
			Model:     model,
			MaxTokens: params.MaxTokens,
			Messages: []Message{
				{Role: "user", Content: prompt},
			},
		},
	}, nil
}

// ParseResponse extracts content[0].text
func (a *Adapter) ParseResponse(desc providers.Descriptor, status int, body []byte) providers.Outcome {
	if status != http.StatusOK {
		return providers.ClassifyStatus(desc.ID, status, body)
	}

	var resp MessagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return providers.ParseFailure(desc.ID, err)
	}
	if len(resp.Content) == 0 {
		return providers.ParseFailure(desc.ID, errors.New("no content blocks in response"))
	}
	text := resp.Content[0].Text
	if text == nil {
		return providers.ParseFailure(desc.ID, errors.New("content[0].text missing"))
	}

	model := resp.Model
	if model == "" {
		model = desc.DefaultModel
	}

	return providers.Succeeded(desc.ID, *text, model, providers.NumericUsage(resp.Usage))
}

// Messages wire types

type MessagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type MessagesResponse struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Model      string                 `json:"model"`
	Content    []ContentBlock         `json:"content"`
	StopReason string                 `json:"stop_reason"`
	Usage      map[string]interface{} `json:"usage"`
}

type ContentBlock struct {
	Type string  `json:"type"`
	Text *string `json:"text"`
}
