package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/parallelai/internal/observability"
	"github.com/upb/parallelai/services/query"
	"github.com/upb/parallelai/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// StatusResponse represents the service status response
type StatusResponse struct {
	Status              string                        `json:"status"`
	Timestamp           string                        `json:"timestamp"`
	Environment         string                        `json:"environment"`
	ProvidersRegistered int                           `json:"providers_registered"`
	ProvidersConfigured []string                      `json:"providers_configured"`
	Metrics             []observability.ProviderStats `json:"metrics"`
}

// ProviderLister lists providers and their credential state
type ProviderLister interface {
	Providers(ctx context.Context) ([]query.ProviderStatus, error)
}

// MetricsSnapshotter exposes recorded dispatch metrics
type MetricsSnapshotter interface {
	Snapshot() []observability.ProviderStats
}

// HealthHandler handles health and status HTTP requests
type HealthHandler struct {
	providers   ProviderLister
	metrics     MetricsSnapshotter
	environment string
	logger      *zap.Logger
	now         func() time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(providers ProviderLister, metrics MetricsSnapshotter, environment string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		providers:   providers,
		metrics:     metrics,
		environment: environment,
		logger:      logger,
		now:         time.Now,
	}
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleStatus handles GET /api/v1/status
func (h *HealthHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.providers.Providers(ctx)
	if err != nil {
		h.logger.Warn("provider listing failed", zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	configured := make([]string, 0, len(list))
	for _, p := range list {
		if p.Configured {
			configured = append(configured, p.Name)
		}
	}

	var snapshot []observability.ProviderStats
	if h.metrics != nil {
		snapshot = h.metrics.Snapshot()
	}
	if snapshot == nil {
		snapshot = []observability.ProviderStats{}
	}

	response := StatusResponse{
		Status:              "operational",
		Timestamp:           h.now().UTC().Format(time.RFC3339),
		Environment:         h.environment,
		ProvidersRegistered: len(list),
		ProvidersConfigured: configured,
		Metrics:             snapshot,
	}

	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write status response", zap.Error(err))
	}
}
