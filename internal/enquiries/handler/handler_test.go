package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carmarket_backend/internal/enquiries/repository"
	"carmarket_backend/internal/enquiries/scoring"
	"carmarket_backend/internal/enquiries/service"
	"carmarket_backend/internal/enquiries/transport"
	"carmarket_backend/platform/apperr"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type stubRepo struct {
	enquiry scoring.Enquiry
	stored  *repository.StoredEnrichment
}

func (s *stubRepo) GetEnquiry(_ context.Context, id uuid.UUID) (scoring.Enquiry, error) {
	if id != s.enquiry.ID {
		return scoring.Enquiry{}, apperr.NotFound("enquiry not found")
	}
	return s.enquiry, nil
}
func (s *stubRepo) ListRecentEvents(context.Context, uuid.UUID, int) ([]scoring.UserEvent, error) {
	return nil, nil
}
func (s *stubRepo) ListRecentFunnelStages(context.Context, uuid.UUID, int) ([]scoring.FunnelStage, error) {
	return nil, nil
}
func (s *stubRepo) GetEnrichment(context.Context, uuid.UUID) (repository.StoredEnrichment, error) {
	if s.stored == nil {
		return repository.StoredEnrichment{}, apperr.NotFound("lead enrichment not found")
	}
	return *s.stored, nil
}
func (s *stubRepo) UpsertEnrichment(_ context.Context, e scoring.Enrichment) (repository.UpsertResult, error) {
	s.stored = &repository.StoredEnrichment{Enrichment: e, Version: 1}
	return repository.UpsertResult{Version: 1, Applied: true}, nil
}
func (s *stubRepo) ListStale(context.Context, repository.BackfillCursor, int) ([]repository.EnquiryRef, error) {
	return nil, nil
}

func newRouter(repo *stubRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.New(repo, nil, logger.Discard(), nil)
	h := New(svc, validator.New(), logger.Discard())
	r := gin.New()
	r.POST("/enquiries/enrich", h.Enrich)
	r.GET("/enquiries/:id/enrichment", h.GetEnrichment)
	r.POST("/enquiries/:id/enrich-async", h.EnqueueEnrich)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestEnrichRequiresEnquiryID(t *testing.T) {
	r := newRouter(&stubRepo{})
	for _, body := range []string{`{}`, `{"enquiry_id":""}`, `{"enquiry_id":"not-a-uuid"}`, ``} {
		if rec := do(r, http.MethodPost, "/enquiries/enrich", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestEnrichReturnsSummary(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{enquiry: scoring.Enquiry{ID: id, UserID: uuid.New(), Type: scoring.EnquiryTestDrive, CreatedAt: time.Now()}}
	r := newRouter(repo)

	rec := do(r, http.MethodPost, "/enquiries/enrich", `{"enquiry_id":"`+id.String()+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp transport.EnrichLeadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Summary.BuyingTimeline != scoring.TimelineImmediate || resp.Summary.AIScore != 75 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestEnrichUnknownEnquiryIs404(t *testing.T) {
	r := newRouter(&stubRepo{})
	rec := do(r, http.MethodPost, "/enquiries/enrich", `{"enquiry_id":"`+uuid.NewString()+`"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetEnrichment(t *testing.T) {
	r := newRouter(&stubRepo{})
	if rec := do(r, http.MethodGet, "/enquiries/nope/enrichment", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := do(r, http.MethodGet, "/enquiries/"+uuid.NewString()+"/enrichment", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEnqueueWithoutWorkerIs503(t *testing.T) {
	id := uuid.New()
	r := newRouter(&stubRepo{enquiry: scoring.Enquiry{ID: id}})
	if rec := do(r, http.MethodPost, "/enquiries/"+id.String()+"/enrich-async", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
