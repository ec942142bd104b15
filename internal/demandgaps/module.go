// Package demandgaps provides the demand gap notification bounded context module.
package demandgaps

import (
	"carmarket_backend/internal/demandgaps/handler"
	"carmarket_backend/internal/demandgaps/repository"
	"carmarket_backend/internal/demandgaps/service"
	"carmarket_backend/internal/events"
	apphttp "carmarket_backend/internal/http"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/metrics"
	"carmarket_backend/platform/phone"
	"carmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the demand gap bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the demand gap module.
func NewModule(pool *pgxpool.Pool, phones *phone.Normalizer, bus events.Bus, val *validator.Validator, log *logger.Logger, m *metrics.Metrics) *Module {
	svc := service.New(repository.New(pool), phones, bus, log, m)
	return &Module{handler: handler.New(svc, val, log)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "demandgaps"
}

// RegisterRoutes mounts the database webhook route.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Webhook.POST("/demand-gaps/notify", m.handler.Notify)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
