package handler

import (
	"carmarket_backend/internal/marketsignals/service"
	"carmarket_backend/internal/marketsignals/signals"
	"carmarket_backend/internal/marketsignals/transport"
	"carmarket_backend/platform/apperr"
	"carmarket_backend/platform/httpkit"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest = "invalid request"
	msgDetectFailed   = "failed to detect market signals"
	msgListFailed     = "failed to load market signals"
)

// Handler handles HTTP requests for market signals.
type Handler struct {
	svc *service.Service
	val *validator.Validator
	log *logger.Logger
}

// New creates a new market signals handler.
func New(svc *service.Service, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, log: log}
}

// Detect runs the detector. The request body is ignored.
// POST /api/v1/market-signals/detect
func (h *Handler) Detect(c *gin.Context) {
	result, err := h.svc.Detect(c.Request.Context())
	if httpkit.HandleError(c, h.log, err, msgDetectFailed) {
		return
	}
	httpkit.OK(c, result)
}

// List returns the active signals.
// GET /api/v1/market-signals
func (h *Handler) List(c *gin.Context) {
	var req transport.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest(msgInvalidRequest), msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); httpkit.HandleError(c, h.log, err, msgInvalidRequest) {
		return
	}

	items, err := h.svc.ListActive(c.Request.Context(), signals.Type(req.Type), req.Limit)
	if httpkit.HandleError(c, h.log, err, msgListFailed) {
		return
	}
	httpkit.OK(c, transport.ListResponse{Items: items})
}
