package aggregate

import (
	"time"

	"github.com/upb/parallelai/services/providers"
)

// DefaultTruncateLimit is the number of characters kept per provider in a
// broadcast result
const DefaultTruncateLimit = 1000

// TargetedResult is the caller-facing result of a single-provider query
type TargetedResult struct {
	Success       bool                    `json:"success"`
	Provider      string                  `json:"provider"`
	Model         string                  `json:"model,omitempty"`
	Response      string                  `json:"response,omitempty"`
	Usage         map[string]float64      `json:"usage,omitempty"`
	Error         string                  `json:"error,omitempty"`
	ErrorCategory providers.ErrorCategory `json:"error_category,omitempty"`
	LatencyMs     int64                   `json:"latency_ms"`
	Timestamp     time.Time               `json:"timestamp"`
}

// ProviderResult is one provider's entry in a broadcast result
type ProviderResult struct {
	Success       bool                    `json:"success"`
	Model         string                  `json:"model,omitempty"`
	Response      string                  `json:"response,omitempty"`
	Usage         map[string]float64      `json:"usage,omitempty"`
	Truncated     bool                    `json:"truncated,omitempty"`
	Error         string                  `json:"error,omitempty"`
	ErrorCategory providers.ErrorCategory `json:"error_category,omitempty"`
}

// BroadcastResult is the caller-facing result of an all-providers query
type BroadcastResult struct {
	Success        bool                      `json:"success"`
	Query          string                    `json:"query"`
	Results        map[string]ProviderResult `json:"results"`
	TotalProviders int                       `json:"total_providers"`
	Error          string                    `json:"error,omitempty"`
	ErrorCategory  providers.ErrorCategory   `json:"error_category,omitempty"`
	Timestamp      time.Time                 `json:"timestamp"`
}

// Aggregator shapes dispatcher outcomes into caller-facing results
type Aggregator struct {
	truncateLimit int
	now           func() time.Time
}

// NewAggregator creates an aggregator. truncateLimit <= 0 disables
// broadcast truncation.
func NewAggregator(truncateLimit int) *Aggregator {
	return &Aggregator{
		truncateLimit: truncateLimit,
		now:           time.Now,
	}
}

// ShapeTargeted returns the full, untruncated outcome of a targeted query
func (a *Aggregator) ShapeTargeted(outcome providers.Outcome) *TargetedResult {
	result := &TargetedResult{
		Success:   outcome.OK(),
		Provider:  outcome.ProviderID,
		LatencyMs: outcome.Latency.Milliseconds(),
		Timestamp: a.now(),
	}

	if outcome.OK() {
		result.Model = outcome.Completion.Model
		result.Response = outcome.Completion.Text
		result.Usage = copyUsage(outcome.Completion.Usage)
		return result
	}

	result.Error = outcome.Failure.Message
	result.ErrorCategory = outcome.Failure.Category
	return result
}

// ShapeBroadcast merges per-provider outcomes. Successful responses are
// truncated; failures carry only their category and message.
func (a *Aggregator) ShapeBroadcast(query string, outcomes map[string]providers.Outcome) *BroadcastResult {
	results := make(map[string]ProviderResult, len(outcomes))
	for id, outcome := range outcomes {
		if !outcome.OK() {
			results[id] = ProviderResult{
				Success:       false,
				Error:         outcome.Failure.Message,
				ErrorCategory: outcome.Failure.Category,
			}
			continue
		}

		text := providers.Truncate(outcome.Completion.Text, a.truncateLimit)
		results[id] = ProviderResult{
			Success:   true,
			Model:     outcome.Completion.Model,
			Response:  text,
			Usage:     copyUsage(outcome.Completion.Usage),
			Truncated: len(text) < len(outcome.Completion.Text),
		}
	}

	return &BroadcastResult{
		Success:        true,
		Query:          query,
		Results:        results,
		TotalProviders: len(outcomes),
		Timestamp:      a.now(),
	}
}

// ShapeNoCredentials returns the single structured failure reported when no
// provider has a credential
func (a *Aggregator) ShapeNoCredentials(query string) *BroadcastResult {
	return &BroadcastResult{
		Success:        false,
		Query:          query,
		Results:        map[string]ProviderResult{},
		TotalProviders: 0,
		Error:          "No API keys configured. Run 'parallelai providers' to see the expected key names",
		ErrorCategory:  providers.CategoryNoCredential,
		Timestamp:      a.now(),
	}
}

func copyUsage(usage map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(usage))
	for k, v := range usage {
		out[k] = v
	}
	return out
}
