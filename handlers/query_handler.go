package handlers

import (
	"context"
	"net/http"

	"github.com/upb/parallelai/middleware"
	"github.com/upb/parallelai/services/aggregate"
	"github.com/upb/parallelai/services/query"
	"github.com/upb/parallelai/utils"
	"go.uber.org/zap"
)

// QueryRequest is the body of POST /api/v1/query. With a provider the query
// is targeted; without one it is broadcast to every configured provider.
type QueryRequest struct {
	Query    string `json:"query" validate:"notblank,max=5000"`
	Provider string `json:"provider,omitempty" validate:"omitempty,max=64"`
	Model    string `json:"model,omitempty" validate:"omitempty,max=128"`
}

// QueryService defines the query operations the HTTP layer needs
type QueryService interface {
	QueryOne(ctx context.Context, req query.Request) (*aggregate.TargetedResult, error)
	QueryAll(ctx context.Context, req query.Request) (*aggregate.BroadcastResult, error)
	Providers(ctx context.Context) ([]query.ProviderStatus, error)
}

// QueryHandler handles query-related HTTP requests
type QueryHandler struct {
	service QueryService
	logger  *zap.Logger
}

// NewQueryHandler creates a new QueryHandler
func NewQueryHandler(service QueryService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		service: service,
		logger:  logger,
	}
}

// HandleQuery handles POST /api/v1/query
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var body QueryRequest
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	if err := utils.ValidateStruct(&body); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	req := query.Request{
		Query:    body.Query,
		Provider: body.Provider,
		Model:    body.Model,
	}

	var (
		result interface{}
		err    error
	)
	if req.Provider != "" {
		result, err = h.service.QueryOne(ctx, req)
	} else {
		result, err = h.service.QueryAll(ctx, req)
	}
	if err != nil {
		h.logger.Error("failed to process query",
			zap.String("request_id", requestID),
			zap.String("provider", req.Provider),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, result); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

// HandleProviders handles GET /api/v1/providers
func (h *QueryHandler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Providers(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, list); err != nil {
		h.logger.Error("failed to write providers response", zap.Error(err))
	}
}
