package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/feirinha/feirinha-backend/pkg/errors"
)

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	handler := RateLimit(RateLimitPolicy{RPS: 0.001, Burst: 2}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/items/x", nil)
		req.RemoteAddr = "1.2.3.4:5678"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		switch {
		case i < 2 && rec.Code != http.StatusOK:
			t.Fatalf("expected success before limit, got %d", rec.Code)
		case i >= 2:
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %d", rec.Code)
			}
			var payload struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
				t.Fatalf("unexpected code: %s", payload.Error.Code)
			}
		}
	}
}

func TestRateLimitKeysByUserBeforeIP(t *testing.T) {
	handler := RateLimit(RateLimitPolicy{RPS: 0.001, Burst: 1}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Two users behind the same address get separate buckets.
	for _, user := range []uuid.UUID{uuid.New(), uuid.New()} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "5.6.7.8:1000"
		req = req.WithContext(WithUserID(req.Context(), user.String()))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for user %s, got %d", user, rec.Code)
		}
	}
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	handler := RateLimit(RateLimitPolicy{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	}
}

func TestLimiterSetForgetsIdleCallers(t *testing.T) {
	set := newLimiterSet(RateLimitPolicy{RPS: 1, Burst: 1})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	set.now = func() time.Time { return now }
	set.allow("a")

	now = now.Add(2 * limiterIdleTTL)
	set.allow("b")
	if _, ok := set.entries["a"]; ok {
		t.Fatal("expected idle limiter to be dropped")
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	req.RemoteAddr = "1.1.1.1:80"
	if got := clientIP(req); got != "9.9.9.9" {
		t.Fatalf("expected forwarded ip, got %s", got)
	}
}
