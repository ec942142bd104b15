package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"carmarket_backend/internal/fitscore/scoring"
	"carmarket_backend/internal/fitscore/service"
	"carmarket_backend/internal/fitscore/transport"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type stubProfiles struct {
	profile scoring.Profile
	err     error
	calls   int
}

func (s *stubProfiles) GetProfile(context.Context, uuid.UUID) (scoring.Profile, bool, error) {
	s.calls++
	if s.err != nil {
		return scoring.Profile{}, false, s.err
	}
	return s.profile, true, nil
}

func newRouter(p *stubProfiles) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(service.New(p, logger.Discard(), nil), validator.New(), logger.Discard())
	r := gin.New()
	r.POST("/fitscore", h.Calculate)
	return r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCalculateRequiresUserID(t *testing.T) {
	r := newRouter(&stubProfiles{})
	for _, body := range []string{`{}`, `{"userId":""}`, `{"userId":"abc"}`, `not json`} {
		if rec := post(r, "/fitscore", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestCalculateRejectsTooManyListings(t *testing.T) {
	items := make([]string, 0, transport.MaxListings+1)
	for i := 0; i <= transport.MaxListings; i++ {
		items = append(items, fmt.Sprintf(`{"id":"car-%d","price":500000}`, i))
	}
	body := fmt.Sprintf(`{"userId":%q,"carListings":[%s]}`, uuid.NewString(), strings.Join(items, ","))

	p := &stubProfiles{}
	if rec := post(newRouter(p), "/fitscore", body); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if p.calls != 0 {
		t.Fatal("profile should not be read for a rejected request")
	}
}

func TestCalculateEmptyListingsReturnsEmptyScores(t *testing.T) {
	p := &stubProfiles{}
	rec := post(newRouter(p), "/fitscore", fmt.Sprintf(`{"userId":%q,"carListings":[]}`, uuid.NewString()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"scores":{}}` {
		t.Fatalf("unexpected body %s", got)
	}
	if p.calls != 0 {
		t.Fatal("empty request should not read the profile")
	}
}

func TestCalculateScoresEveryListing(t *testing.T) {
	p := &stubProfiles{profile: scoring.Profile{
		BudgetMin:     400000,
		BudgetMax:     600000,
		BrandAffinity: map[string]float64{"hyundai": 1},
		IntentScore:   80,
	}}
	body := fmt.Sprintf(`{"userId":%q,"carListings":[
		{"id":"a","brand":"Hyundai","price":500000},
		{"id":"b","brand":"Tata","price":2500000}
	]}`, uuid.NewString())

	rec := post(newRouter(p), "/fitscore?breakdown=true", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp transport.FitScoreResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Scores) != 2 || len(resp.Breakdown) != 2 {
		t.Fatalf("expected two scores with breakdown, got %+v", resp)
	}
	if resp.Scores["a"] <= resp.Scores["b"] {
		t.Fatalf("in-budget preferred brand should outscore, got %v", resp.Scores)
	}
	for id, score := range resp.Scores {
		if score < 0 || score > 100 {
			t.Fatalf("score for %s out of range: %d", id, score)
		}
		if resp.Breakdown[id].Total() != score {
			t.Fatalf("breakdown total for %s does not match score", id)
		}
	}
}

func TestCalculateOmitsBreakdownByDefault(t *testing.T) {
	body := fmt.Sprintf(`{"userId":%q,"carListings":[{"id":"a","price":100}]}`, uuid.NewString())
	rec := post(newRouter(&stubProfiles{}), "/fitscore", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "breakdown") {
		t.Fatalf("unexpected breakdown in %s", rec.Body.String())
	}
}

func TestCalculateHidesStoreErrors(t *testing.T) {
	p := &stubProfiles{err: errors.New("connection refused on 10.0.0.3")}
	body := fmt.Sprintf(`{"userId":%q,"carListings":[{"id":"a","price":100}]}`, uuid.NewString())
	rec := post(newRouter(p), "/fitscore", body)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.3") {
		t.Fatalf("internal detail leaked: %s", rec.Body.String())
	}
}
