package handler

import (
	"net/http"

	"carmarket_backend/internal/demandgaps/service"
	"carmarket_backend/internal/demandgaps/transport"
	"carmarket_backend/platform/apperr"
	"carmarket_backend/platform/httpkit"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest = "invalid request"
	msgRecordRequired = "record with id is required"
	msgNotifyFailed   = "failed to notify dealers"
)

// Handler handles the demand gap webhook.
type Handler struct {
	svc *service.Service
	val *validator.Validator
	log *logger.Logger
}

// New creates a new demand gap handler.
func New(svc *service.Service, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, log: log}
}

// Notify fans a new demand gap out to dealers.
// POST /api/v1/demand-gaps/notify
func (h *Handler) Notify(c *gin.Context) {
	var req transport.NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest(msgInvalidRequest), msgInvalidRequest)
		return
	}
	if req.Record == nil || req.Record.ID == "" {
		httpkit.Error(c, http.StatusBadRequest, msgRecordRequired, nil)
		return
	}
	if err := h.val.Struct(req.Record); httpkit.HandleError(c, h.log, err, msgInvalidRequest) {
		return
	}

	result, err := h.svc.Notify(c.Request.Context(), *req.Record)
	if httpkit.HandleError(c, h.log, err, msgNotifyFailed) {
		return
	}
	httpkit.OK(c, result)
}
