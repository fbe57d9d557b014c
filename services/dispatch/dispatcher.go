package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/upb/parallelai/internal/observability"
	"github.com/upb/parallelai/internal/shared"
	"github.com/upb/parallelai/services/providers"
	"go.uber.org/zap"
)

// ErrNoCredentials is returned by DispatchAll when no registered provider
// has a credential in the supplied set
var ErrNoCredentials = errors.New("no API keys configured")

const (
	defaultTimeout          = 30 * time.Second
	defaultMaxResponseBytes = 8 << 20
)

// Config holds dispatcher settings
type Config struct {
	// Params are the generation parameters sent to every provider
	Params providers.Params

	// MaxResponseBytes bounds how much of a response body is read
	MaxResponseBytes int64
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		Params:           providers.DefaultParams(),
		MaxResponseBytes: defaultMaxResponseBytes,
	}
}

// Dispatcher issues queries to providers and turns every result, including
// transport failures and panics, into a providers.Outcome
type Dispatcher struct {
	registry *providers.Registry
	client   *http.Client
	config   Config
	metrics  observability.Metrics
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher. A nil client gets a pooled transport
// without a client-level timeout; per-call timeouts come from contexts.
func NewDispatcher(registry *providers.Registry, client *http.Client, config Config, metrics observability.Metrics, logger *zap.Logger) *Dispatcher {
	if client == nil {
		client = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	if config.MaxResponseBytes <= 0 {
		config.MaxResponseBytes = defaultMaxResponseBytes
	}
	if config.Params.MaxTokens <= 0 {
		config.Params.MaxTokens = providers.DefaultParams().MaxTokens
	}
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		registry: registry,
		client:   client,
		config:   config,
		metrics:  metrics,
		logger:   logger,
	}
}

// Registry returns the provider registry the dispatcher resolves against
func (d *Dispatcher) Registry() *providers.Registry {
	return d.registry
}

// DispatchOne queries a single provider. A missing credential fails fast
// with CategoryNoCredential and performs no network I/O.
func (d *Dispatcher) DispatchOne(ctx context.Context, providerID, prompt, model string, creds providers.CredentialSet, timeout time.Duration) (outcome providers.Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("provider call panicked",
				zap.String("provider", providerID),
				zap.Any("panic", r))
			outcome = providers.Failed(providerID, providers.CategoryProviderError,
				fmt.Sprintf("%s request aborted: %v", providerID, r))
		}
		outcome = outcome.WithLatency(time.Since(start))
		d.record(ctx, outcome)
	}()

	return d.call(ctx, providerID, prompt, model, creds, timeout)
}

// DispatchAll queries every provider that has a credential, concurrently.
// It returns once every call has settled; the map holds exactly one outcome
// per candidate. ErrNoCredentials is returned when there are no candidates.
func (d *Dispatcher) DispatchAll(ctx context.Context, prompt string, creds providers.CredentialSet, timeout time.Duration) (map[string]providers.Outcome, error) {
	candidates := d.registry.AvailableProviders(creds)
	if len(candidates) == 0 {
		return nil, ErrNoCredentials
	}

	d.logger.Debug("broadcasting query",
		zap.String("request_id", shared.RequestID(ctx)),
		zap.Strings("providers", candidates))

	// Each goroutine owns one slot, so collection needs no lock.
	results := make([]providers.Outcome, len(candidates))
	var wg sync.WaitGroup
	for i, id := range candidates {
		wg.Add(1)
		go func(idx int, providerID string) {
			defer wg.Done()
			results[idx] = d.DispatchOne(ctx, providerID, prompt, "", creds, timeout)
		}(i, id)
	}
	wg.Wait()

	outcomes := make(map[string]providers.Outcome, len(candidates))
	for i, id := range candidates {
		outcomes[id] = results[i]
	}
	return outcomes, nil
}

func (d *Dispatcher) call(ctx context.Context, providerID, prompt, model string, creds providers.CredentialSet, timeout time.Duration) providers.Outcome {
	credential, ok := creds.Get(providerID)
	if !ok {
		return providers.Failed(providerID, providers.CategoryNoCredential,
			fmt.Sprintf("%s API key not set", providerID))
	}

	desc, err := d.registry.Describe(providerID)
	if err != nil {
		return providers.Failed(providerID, providers.CategoryProviderError, err.Error())
	}

	adapter, err := d.registry.AdapterFor(desc)
	if err != nil {
		return providers.Failed(providerID, providers.CategoryProviderError, err.Error())
	}

	req, err := adapter.BuildRequest(desc, credential, prompt, model, d.config.Params)
	if err != nil {
		return providers.Failed(providerID, providers.CategoryProviderError,
			fmt.Sprintf("%s: failed to build request: %v", providerID, err))
	}

	payload, err := json.Marshal(req.Body)
	if err != nil {
		return providers.Failed(providerID, providers.CategoryProviderError,
			fmt.Sprintf("%s: failed to marshal request: %v", providerID, err))
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, req.URL, bytes.NewReader(payload))
	if err != nil {
		return providers.Failed(providerID, providers.CategoryProviderError,
			fmt.Sprintf("%s: failed to create request: %v", providerID, err))
	}
	httpReq.Header = req.Header

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return transportFailure(callCtx, providerID, timeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.config.MaxResponseBytes))
	if err != nil {
		return transportFailure(callCtx, providerID, timeout, err)
	}

	return adapter.ParseResponse(desc, resp.StatusCode, body)
}

// transportFailure classifies an error raised while sending a request or
// reading its body
func transportFailure(ctx context.Context, providerID string, timeout time.Duration, err error) providers.Outcome {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return providers.Failed(providerID, providers.CategoryTimeout,
			fmt.Sprintf("%s request timed out after %s", providerID, timeout))
	}
	return providers.Failed(providerID, providers.CategoryNetworkError,
		fmt.Sprintf("%s request failed: %v", providerID, err))
}

func (d *Dispatcher) record(ctx context.Context, outcome providers.Outcome) {
	d.metrics.RecordOutcome(ctx, observability.OutcomeLabels{
		Provider: outcome.ProviderID,
		Category: string(outcome.Category()),
	}, outcome.Latency)

	fields := []zap.Field{
		zap.String("request_id", shared.RequestID(ctx)),
		zap.String("provider", outcome.ProviderID),
		zap.Int64("latency_ms", outcome.Latency.Milliseconds()),
	}
	if outcome.OK() {
		d.logger.Info("provider call succeeded",
			append(fields, zap.String("model", outcome.Completion.Model))...)
		return
	}
	d.logger.Warn("provider call failed",
		append(fields,
			zap.String("category", string(outcome.Failure.Category)),
			zap.String("error", outcome.Failure.Message))...)
}
