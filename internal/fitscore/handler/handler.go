package handler

import (
	"net/http"
	"strconv"

	"carmarket_backend/internal/fitscore/service"
	"carmarket_backend/internal/fitscore/transport"
	"carmarket_backend/platform/apperr"
	"carmarket_backend/platform/httpkit"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest  = "invalid request"
	msgUserIDRequired  = "userId is required"
	msgTooManyListings = "too many car listings"
	msgScoreFailed     = "failed to calculate fit scores"
)

// Handler handles HTTP requests for fit scores.
type Handler struct {
	svc *service.Service
	val *validator.Validator
	log *logger.Logger
}

// New creates a new fit score handler.
func New(svc *service.Service, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, log: log}
}

// Calculate scores candidate listings for a user.
// POST /api/v1/fitscore
func (h *Handler) Calculate(c *gin.Context) {
	var req transport.FitScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest(msgInvalidRequest), msgInvalidRequest)
		return
	}
	if req.UserID == "" {
		httpkit.Error(c, http.StatusBadRequest, msgUserIDRequired, nil)
		return
	}
	if len(req.CarListings) > transport.MaxListings {
		httpkit.Error(c, http.StatusBadRequest, msgTooManyListings, gin.H{"max": transport.MaxListings})
		return
	}
	if err := h.val.Struct(req); httpkit.HandleError(c, h.log, err, msgInvalidRequest) {
		return
	}

	breakdown, _ := strconv.ParseBool(c.Query("breakdown"))
	result, err := h.svc.Score(c.Request.Context(), uuid.MustParse(req.UserID), req.CarListings, req.UserLocation, breakdown)
	if httpkit.HandleError(c, h.log, err, msgScoreFailed) {
		return
	}
	httpkit.OK(c, result)
}
