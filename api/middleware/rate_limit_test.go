package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{counts: make(map[string]int64)}
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func TestRateLimitBlocksAfterBudget(t *testing.T) {
	store := newFakeLimiter()
	policy := RateLimitPolicy{Window: time.Minute, Limit: 2}

	handler := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx := WithUserID(context.Background(), "user-1")
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/businesses", nil).WithContext(ctx)
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/businesses", nil).WithContext(ctx)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the budget is spent, got %d", rec.Code)
	}
}

func TestRateLimitScopesByUserThenIP(t *testing.T) {
	store := newFakeLimiter()
	policy := RateLimitPolicy{Window: time.Minute, Limit: 1}

	handler := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	userReq := httptest.NewRequest(http.MethodGet, "/api/v1/businesses", nil).
		WithContext(WithUserID(context.Background(), "user-1"))
	handler.ServeHTTP(httptest.NewRecorder(), userReq)

	anonReq := httptest.NewRequest(http.MethodGet, "/api/v1/businesses", nil)
	anonReq.Header.Set("X-Forwarded-For", "203.0.113.9")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, anonReq)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("anonymous request should use a separate scope, got %d", rec.Code)
	}

	if _, ok := store.counts["user-1"]; !ok {
		t.Fatal("expected authenticated scope keyed by user id")
	}
	if _, ok := store.counts["ip:203.0.113.9"]; !ok {
		t.Fatal("expected anonymous scope keyed by client ip")
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	store := newFakeLimiter()

	handler := RateLimit(RateLimitPolicy{}, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/businesses", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected passthrough, got %d", rec.Code)
	}
	if len(store.counts) != 0 {
		t.Fatalf("store should not be consulted when disabled, counts=%v", store.counts)
	}
}
