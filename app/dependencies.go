package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/upb/parallelai/config"
	"github.com/upb/parallelai/internal/observability"
	"github.com/upb/parallelai/services/aggregate"
	"github.com/upb/parallelai/services/dispatch"
	"github.com/upb/parallelai/services/keystore"
	"github.com/upb/parallelai/services/providers"
	"github.com/upb/parallelai/services/providers/catalog"
	"github.com/upb/parallelai/services/query"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Provider Registry
	Registry *providers.Registry

	// Dispatch pipeline
	Metrics     *observability.InMemoryMetrics
	Dispatcher  *dispatch.Dispatcher
	Aggregator  *aggregate.Aggregator
	Credentials query.CredentialSource

	// Facade
	Query *query.Service
}

// Option customizes dependency construction
type Option func(*options)

type options struct {
	client      *http.Client
	credentials query.CredentialSource
}

// WithHTTPClient overrides the client used for provider calls
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.client = client }
}

// WithCredentials overrides the default key file then environment lookup
func WithCredentials(src query.CredentialSource) Option {
	return func(o *options) { o.credentials = src }
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Dependencies, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initProviders(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	deps.initDispatch(cfg, o.client)
	deps.initCredentials(cfg, o.credentials)

	deps.Query = query.NewService(deps.Dispatcher, deps.Aggregator, deps.Credentials, cfg.Dispatch.Timeout, logger)

	logger.Info("all dependencies initialized successfully",
		zap.Int("providers", deps.Registry.Count()))
	return deps, nil
}

// initProviders builds the registry from the built-in catalog plus the
// optional descriptor file
func (d *Dependencies) initProviders(cfg *config.Config) error {
	registry, err := catalog.NewRegistry(cfg.Dispatch.ProvidersFile)
	if err != nil {
		return err
	}

	for _, desc := range registry.Descriptors() {
		d.Logger.Debug("provider registered",
			zap.String("provider", desc.ID),
			zap.String("family", string(desc.Family)),
			zap.String("default_model", desc.DefaultModel))
	}

	d.Registry = registry
	return nil
}

func (d *Dependencies) initDispatch(cfg *config.Config, client *http.Client) {
	d.Metrics = observability.NewInMemoryMetrics()
	d.Dispatcher = dispatch.NewDispatcher(d.Registry, client, dispatch.Config{
		Params: providers.Params{
			MaxTokens:   cfg.Dispatch.MaxTokens,
			Temperature: cfg.Dispatch.Temperature,
		},
		MaxResponseBytes: cfg.Dispatch.MaxResponseBytes,
	}, d.Metrics, d.Logger)
	d.Aggregator = aggregate.NewAggregator(cfg.Dispatch.TruncateChars)
}

func (d *Dependencies) initCredentials(cfg *config.Config, src query.CredentialSource) {
	if src != nil {
		d.Credentials = src
		return
	}
	d.Credentials = keystore.Default(cfg.Keys.File)
	d.Logger.Info("credential lookup configured",
		zap.String("keys_file", cfg.Keys.File))
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	return nil
}
