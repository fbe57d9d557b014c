package observability

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Metrics collects dispatch metrics.
type Metrics interface {
	RecordOutcome(ctx context.Context, labels OutcomeLabels, latency time.Duration)
}

// OutcomeLabels contains metric dimensions.
type OutcomeLabels struct {
	Provider string
	Category string // empty on success
}

// ProviderStats is the per-provider snapshot.
type ProviderStats struct {
	Provider     string           `json:"provider"`
	Calls        int64            `json:"calls"`
	Successes    int64            `json:"successes"`
	Failures     map[string]int64 `json:"failures,omitempty"`
	AvgLatencyMs float64          `json:"avg_latency_ms"`
}

type providerCounters struct {
	calls     int64
	successes int64
	failures  map[string]int64
	latency   time.Duration
}

// InMemoryMetrics keeps counters in process memory.
type InMemoryMetrics struct {
	mu        sync.Mutex
	providers map[string]*providerCounters
}

// NewInMemoryMetrics creates an empty recorder.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		providers: make(map[string]*providerCounters),
	}
}

// RecordOutcome implements Metrics.
func (m *InMemoryMetrics) RecordOutcome(_ context.Context, labels OutcomeLabels, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.providers[labels.Provider]
	if !ok {
		c = &providerCounters{failures: make(map[string]int64)}
		m.providers[labels.Provider] = c
	}
	c.calls++
	c.latency += latency
	if labels.Category == "" {
		c.successes++
	} else {
		c.failures[labels.Category]++
	}
}

// Snapshot returns the counters ordered by provider.
func (m *InMemoryMetrics) Snapshot() []ProviderStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ProviderStats, 0, len(m.providers))
	for name, c := range m.providers {
		s := ProviderStats{
			Provider:  name,
			Calls:     c.calls,
			Successes: c.successes,
		}
		if len(c.failures) > 0 {
			s.Failures = make(map[string]int64, len(c.failures))
			for k, v := range c.failures {
				s.Failures[k] = v
			}
		}
		if c.calls > 0 {
			s.AvgLatencyMs = float64(c.latency.Milliseconds()) / float64(c.calls)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}

// NopMetrics discards everything.
type NopMetrics struct{}

// RecordOutcome implements Metrics.
func (NopMetrics) RecordOutcome(context.Context, OutcomeLabels, time.Duration) {}
