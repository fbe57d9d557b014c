package query

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/upb/parallelai/internal/shared"
	"github.com/upb/parallelai/services"
	"github.com/upb/parallelai/services/aggregate"
	"github.com/upb/parallelai/services/dispatch"
	"github.com/upb/parallelai/services/providers"
	"go.uber.org/zap"
)

// MaxQueryChars is the longest accepted query
const MaxQueryChars = 5000

// CredentialSource supplies provider credentials. It is called fresh for
// every request; nothing is cached here.
type CredentialSource interface {
	CredentialsFor(ctx context.Context, providerIDs []string) (providers.CredentialSet, error)
}

// Request is a validated-on-entry query
type Request struct {
	Query    string `json:"query"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// Validate checks the query text
func (r Request) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return services.ErrEmptyQuery
	}
	if utf8.RuneCountInString(r.Query) > MaxQueryChars {
		return services.ErrQueryTooLong.WithDetail("max_chars", MaxQueryChars)
	}
	return nil
}

// ProviderStatus describes one registered provider for listings
type ProviderStatus struct {
	Name         string              `json:"name"`
	DefaultModel string              `json:"default_model"`
	Family       providers.Family    `json:"family"`
	AuthStyle    providers.AuthStyle `json:"auth_style"`
	Configured   bool                `json:"configured"`
}

// Service is the entry point for targeted and broadcast queries
type Service struct {
	dispatcher  *dispatch.Dispatcher
	aggregator  *aggregate.Aggregator
	credentials CredentialSource
	timeout     time.Duration
	logger      *zap.Logger
}

// NewService creates a query service
func NewService(dispatcher *dispatch.Dispatcher, aggregator *aggregate.Aggregator, credentials CredentialSource, timeout time.Duration, logger *zap.Logger) *Service {
	return &Service{
		dispatcher:  dispatcher,
		aggregator:  aggregator,
		credentials: credentials,
		timeout:     timeout,
		logger:      logger,
	}
}

// QueryOne sends the query to req.Provider. Provider failures are reported
// inside the result; the error is reserved for invalid requests and
// credential lookup failures.
func (s *Service) QueryOne(ctx context.Context, req Request) (*aggregate.TargetedResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Provider == "" {
		return nil, services.ErrInvalidInput.WithDetail("provider", "provider is required for a targeted query")
	}
	if _, err := s.dispatcher.Registry().Describe(req.Provider); err != nil {
		return nil, services.ErrProviderNotFound.WithDetail("provider", req.Provider)
	}

	creds, err := s.credentials.CredentialsFor(ctx, []string{req.Provider})
	if err != nil {
		return nil, services.WrapInternal("credential lookup failed", err)
	}

	s.logger.Info("targeted query",
		zap.String("request_id", shared.RequestID(ctx)),
		zap.String("provider", req.Provider),
		zap.Int("query_chars", utf8.RuneCountInString(req.Query)))

	outcome := s.dispatcher.DispatchOne(ctx, req.Provider, req.Query, req.Model, creds, s.timeout)
	return s.aggregator.ShapeTargeted(outcome), nil
}

// QueryAll broadcasts the query to every provider that has a credential.
// Having no credentials at all is reported as a structured result, not an
// error.
func (s *Service) QueryAll(ctx context.Context, req Request) (*aggregate.BroadcastResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	creds, err := s.credentials.CredentialsFor(ctx, s.dispatcher.Registry().IDs())
	if err != nil {
		return nil, services.WrapInternal("credential lookup failed", err)
	}

	outcomes, err := s.dispatcher.DispatchAll(ctx, req.Query, creds, s.timeout)
	if errors.Is(err, dispatch.ErrNoCredentials) {
		s.logger.Warn("broadcast query with no credentials configured",
			zap.String("request_id", shared.RequestID(ctx)))
		return s.aggregator.ShapeNoCredentials(req.Query), nil
	}
	if err != nil {
		return nil, services.WrapInternal("broadcast failed", err)
	}

	result := s.aggregator.ShapeBroadcast(req.Query, outcomes)

	succeeded := 0
	for _, r := range result.Results {
		if r.Success {
			succeeded++
		}
	}
	s.logger.Info("broadcast query completed",
		zap.String("request_id", shared.RequestID(ctx)),
		zap.Int("total_providers", result.TotalProviders),
		zap.Int("succeeded", succeeded))

	return result, nil
}

// Providers lists every registered provider and whether a credential is
// available for it
func (s *Service) Providers(ctx context.Context) ([]ProviderStatus, error) {
	registry := s.dispatcher.Registry()
	creds, err := s.credentials.CredentialsFor(ctx, registry.IDs())
	if err != nil {
		return nil, services.WrapInternal("credential lookup failed", err)
	}

	descs := registry.Descriptors()
	out := make([]ProviderStatus, 0, len(descs))
	for _, d := range descs {
		_, configured := creds.Get(d.ID)
		out = append(out, ProviderStatus{
			Name:         d.ID,
			DefaultModel: d.DefaultModel,
			Family:       d.Family,
			AuthStyle:    d.AuthStyle,
			Configured:   configured,
		})
	}
	return out, nil
}
