// Package marketsignals provides the market signal detection bounded context module.
package marketsignals

import (
	"time"

	"carmarket_backend/internal/events"
	apphttp "carmarket_backend/internal/http"
	"carmarket_backend/internal/marketsignals/handler"
	"carmarket_backend/internal/marketsignals/repository"
	"carmarket_backend/internal/marketsignals/service"
	"carmarket_backend/internal/marketsignals/signals"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/metrics"
	"carmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the market signals bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the market signals module.
func NewModule(pool *pgxpool.Pool, rules signals.Rules, ttl time.Duration, bus events.Bus, val *validator.Validator, log *logger.Logger, m *metrics.Metrics) *Module {
	svc := service.New(repository.New(pool), rules, ttl, bus, log, m)
	return &Module{
		handler: handler.New(svc, val, log),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "marketsignals"
}

// Service returns the service layer for the scheduler.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts market signal routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/market-signals/detect", ctx.ScoringRateLimit, m.handler.Detect)
	ctx.Dealer.GET("/market-signals", m.handler.List)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
