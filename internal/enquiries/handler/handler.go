package handler

import (
	"net/http"

	"carmarket_backend/internal/enquiries/service"
	"carmarket_backend/internal/enquiries/transport"
	"carmarket_backend/platform/apperr"
	"carmarket_backend/platform/httpkit"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest  = "invalid request"
	msgInvalidID       = "invalid enquiry ID"
	msgEnrichFailed    = "failed to enrich lead"
	msgLoadFailed      = "failed to load lead enrichment"
	msgEnqueueFailed   = "failed to queue lead enrichment"
	msgEnquiryRequired = "enquiry_id is required"
)

// Handler handles HTTP requests for lead enrichment.
type Handler struct {
	svc *service.Service
	val *validator.Validator
	log *logger.Logger
}

// New creates a new enquiries handler.
func New(svc *service.Service, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, log: log}
}

// Enrich scores an enquiry synchronously.
// POST /api/v1/enquiries/enrich
func (h *Handler) Enrich(c *gin.Context) {
	var req transport.EnrichLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest(msgInvalidRequest), msgInvalidRequest)
		return
	}
	if req.EnquiryID == "" {
		httpkit.Error(c, http.StatusBadRequest, msgEnquiryRequired, nil)
		return
	}
	if err := h.val.Struct(req); httpkit.HandleError(c, h.log, err, msgInvalidRequest) {
		return
	}

	id := uuid.MustParse(req.EnquiryID)
	result, err := h.svc.Enrich(c.Request.Context(), id)
	if httpkit.HandleError(c, h.log, err, msgEnrichFailed) {
		return
	}
	httpkit.OK(c, result)
}

// GetEnrichment returns the stored enrichment.
// GET /api/v1/enquiries/:id/enrichment
func (h *Handler) GetEnrichment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.GetEnrichment(c.Request.Context(), id)
	if httpkit.HandleError(c, h.log, err, msgLoadFailed) {
		return
	}
	httpkit.OK(c, result)
}

// EnqueueEnrich defers scoring to the background worker.
// POST /api/v1/enquiries/:id/enrich-async
func (h *Handler) EnqueueEnrich(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	if err := h.svc.EnqueueEnrich(c.Request.Context(), id); httpkit.HandleError(c, h.log, err, msgEnqueueFailed) {
		return
	}
	httpkit.Accepted(c, transport.EnqueueResponse{Queued: true, EnquiryID: id.String()})
}
