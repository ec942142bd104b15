package httpkit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carmarket_backend/platform/apperr"
	"carmarket_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type testConfig struct{ secret string }

func (c testConfig) GetJWTAccessSecret() string { return c.secret }
func (c testConfig) GetWebhookSecret() string   { return c.secret }

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	userID := uuid.New()
	router := gin.New()
	router.GET("/me", AuthRequired(testConfig{secret: "s3cret"}), RequireRole(RoleDealer), func(c *gin.Context) {
		c.String(http.StatusOK, GetIdentity(c).UserID().String())
	})

	token := signToken(t, "s3cret", jwt.MapClaims{
		"sub":   userID.String(),
		"roles": []string{RoleDealer},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != userID.String() {
		t.Fatalf("expected user id in body, got %q", rec.Body.String())
	}
}

func TestAuthRequiredRejectsWrongSecret(t *testing.T) {
	router := gin.New()
	router.GET("/me", AuthRequired(testConfig{secret: "s3cret"}), func(c *gin.Context) { c.Status(http.StatusOK) })

	token := signToken(t, "other", jwt.MapClaims{"sub": uuid.NewString()})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRoleForbidsNonDealer(t *testing.T) {
	router := gin.New()
	router.GET("/dash", AuthRequired(testConfig{secret: "k"}), RequireRole(RoleDealer), func(c *gin.Context) { c.Status(http.StatusOK) })

	token := signToken(t, "k", jwt.MapClaims{"sub": uuid.NewString(), "role": "buyer"})
	req := httptest.NewRequest(http.MethodGet, "/dash", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error != "forbidden" {
		t.Fatalf("expected forbidden envelope, got %s", rec.Body.String())
	}
}

func TestWebhookSecret(t *testing.T) {
	router := gin.New()
	router.POST("/hook", WebhookSecret(testConfig{secret: "hook"}), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for header, want := range map[string]int{"": http.StatusUnauthorized, "nope": http.StatusUnauthorized, "hook": http.StatusNoContent} {
		req := httptest.NewRequest(http.MethodPost, "/hook", nil)
		if header != "" {
			req.Header.Set(WebhookSecretHeader, header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("header %q: expected %d, got %d", header, want, rec.Code)
		}
	}
}

func TestHandleErrorHidesUpstreamDetail(t *testing.T) {
	router := gin.New()
	router.GET("/typed", func(c *gin.Context) {
		HandleError(c, logger.Discard(), apperr.NotFound("enquiry not found"), "enrich failed")
	})
	router.GET("/raw", func(c *gin.Context) {
		HandleError(c, logger.Discard(), errors.New("pq: password authentication failed"), "enrich failed")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/typed", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/raw", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "enrich failed" {
		t.Fatalf("expected generic message, got %q", body.Error)
	}
}

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	limiter := NewIPRateLimiter(0, 1, logger.Discard())
	router := gin.New()
	router.GET("/x", limiter.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}

func TestHandleErrorLogsDatabaseFailures(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("production", &buf)

	router := gin.New()
	router.GET("/db", func(c *gin.Context) {
		err := fmt.Errorf("upsert lead enrichment: %w", &pgconn.PgError{Code: "23505", Message: "duplicate key"})
		HandleError(c, log, err, "enrich failed")
	})
	router.GET("/other", func(c *gin.Context) {
		HandleError(c, log, errors.New("template render failed"), "notify failed")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/db", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"msg":"database_error"`)) || !bytes.Contains(buf.Bytes(), []byte(`"operation":"enrich failed"`)) {
		t.Fatalf("expected database_error log line, got %s", buf.String())
	}

	buf.Reset()
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	if bytes.Contains(buf.Bytes(), []byte("database_error")) {
		t.Fatalf("non-database failure logged as database error: %s", buf.String())
	}
}

func TestAbortUsesTypedStatus(t *testing.T) {
	router := gin.New()
	router.GET("/gone", func(c *gin.Context) {
		Abort(c, apperr.BadRequest("bad cursor").WithDetails(map[string]string{"cursor": "malformed"}))
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gone", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
