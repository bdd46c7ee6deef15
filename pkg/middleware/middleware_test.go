package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/dataroom/pkg/configs"
)

type fakeTokens map[string]uint

func (f fakeTokens) Parse(token string) (uint, error) {
	if uid, ok := f[token]; ok {
		return uid, nil
	}

	return 0, errors.New("bad token")
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(mw...)
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": GetUserID(c)})
	})

	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newEngine(AuthMiddleware(fakeTokens{"good": 7}))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"invalid", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}

			if tc.want == http.StatusUnauthorized && w.Body.String() != `{"error":"unauthorized"}` {
				t.Fatalf("body = %s", w.Body.String())
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newEngine(RequestIDMiddleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "abc-123")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("request id = %q, want abc-123", got)
	}
}

func TestRateLimitPerUser(t *testing.T) {
	cfg := configs.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1, Key: configs.RateLimitUser, MaxKeys: 10}
	r := newEngine(AuthMiddleware(fakeTokens{"a": 1, "b": 2}), RateLimitMiddleware(cfg))

	do := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		return w.Code
	}

	if got := do("a"); got != http.StatusOK {
		t.Fatalf("first request for a = %d", got)
	}

	if got := do("a"); got != http.StatusTooManyRequests {
		t.Fatalf("second request for a = %d, want 429", got)
	}

	if got := do("b"); got != http.StatusOK {
		t.Fatalf("first request for b = %d", got)
	}
}

func TestCircuitBreakerOpens(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := configs.CircuitBreakerConfig{Enabled: true, FailureRate: 0.5, MinRequests: 2, HalfOpenMax: 1, Timeout: time.Hour}

	r := gin.New()
	r.Use(CircuitBreakerMiddleware(cfg))
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	codes := make([]int, 0, 3)

	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
		codes = append(codes, w.Code)
	}

	if codes[2] != http.StatusServiceUnavailable {
		t.Fatalf("codes = %v, want breaker open on the third call", codes)
	}
}
