// Package http provides HTTP server infrastructure including the Module interface
// that all domain modules must implement for route registration.
package http

import (
	"carmarket_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
// Each domain module implements this interface to encapsulate its own
// route setup, keeping the main router decoupled from specific endpoints.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router groups.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
type RouterContext struct {
	// Engine is the root Gin engine for modules that need engine-level access.
	Engine *gin.Engine
	// V1 is the /api/v1 route group (CORS, no auth).
	V1 *gin.RouterGroup
	// Protected is the JWT-authenticated group under /api/v1.
	Protected *gin.RouterGroup
	// Dealer is the dealer-only group under /api/v1.
	Dealer *gin.RouterGroup
	// Webhook is the group for database webhooks, guarded by the shared secret.
	Webhook *gin.RouterGroup
	// ScoringRateLimit throttles the compute-heavy scoring endpoints per IP.
	ScoringRateLimit gin.HandlerFunc
	// Logger is the structured logger.
	Logger *logger.Logger
}
