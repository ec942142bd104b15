// Package enquiries provides the lead scoring bounded context module.
// It computes and stores a LeadEnrichment per enquiry.
package enquiries

import (
	"carmarket_backend/internal/enquiries/handler"
	"carmarket_backend/internal/enquiries/repository"
	"carmarket_backend/internal/enquiries/service"
	"carmarket_backend/internal/events"
	apphttp "carmarket_backend/internal/http"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/metrics"
	"carmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the enquiries bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the enquiries module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger, m *metrics.Metrics) *Module {
	svc := service.New(repository.New(pool), bus, log, m)
	return &Module{
		handler: handler.New(svc, val, log),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "enquiries"
}

// Service returns the service layer for the scheduler and backfill.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead enrichment routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/enquiries")
	group.POST("/enrich", ctx.ScoringRateLimit, m.handler.Enrich)
	group.POST("/:id/enrich-async", ctx.ScoringRateLimit, m.handler.EnqueueEnrich)

	ctx.Dealer.GET("/enquiries/:id/enrichment", m.handler.GetEnrichment)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
