// Package fitscore provides the per-listing fit scoring bounded context module.
package fitscore

import (
	"time"

	"carmarket_backend/internal/fitscore/handler"
	"carmarket_backend/internal/fitscore/repository"
	"carmarket_backend/internal/fitscore/service"
	apphttp "carmarket_backend/internal/http"
	"carmarket_backend/platform/cache"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/metrics"
	"carmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the fitscore bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the profile repository behind the cache.
func NewModule(pool *pgxpool.Pool, profileCache cache.Cache, cacheTTL time.Duration, val *validator.Validator, log *logger.Logger, m *metrics.Metrics) *Module {
	profiles := repository.NewCachedProfiles(repository.New(pool), profileCache, cacheTTL, log)
	svc := service.New(profiles, log, m)
	return &Module{
		handler: handler.New(svc, val, log),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "fitscore"
}

// RegisterRoutes mounts fit score routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/fitscore", ctx.ScoringRateLimit, m.handler.Calculate)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
