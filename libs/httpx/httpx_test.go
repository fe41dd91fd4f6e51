package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryLimiterBlocksAfterLimit(t *testing.T) {
	h := RateLimit(NewMemoryLimiter(2, time.Minute), discardLogger(), false)(okHandler())

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/public/book", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		if rw.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rw.Code)
		}
		if want == http.StatusTooManyRequests && rw.Header().Get("Retry-After") == "" {
			t.Fatal("expected Retry-After on 429")
		}
	}

	other := httptest.NewRequest(http.MethodGet, "/api/v1/public/book", nil)
	other.Header.Set("X-Forwarded-For", "10.0.0.2, 10.0.0.9")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, other)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected other client to pass, got %d", rw.Code)
	}
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	first, _ := l.Take(ctx, "a")
	second, _ := l.Take(ctx, "a")
	if !first.Allowed || second.Allowed {
		t.Fatal("expected first allowed and second blocked")
	}
	if second.RetryAfter != time.Minute {
		t.Fatalf("expected a full window to wait, got %v", second.RetryAfter)
	}
	now = now.Add(2 * time.Minute)
	if d, _ := l.Take(ctx, "a"); !d.Allowed {
		t.Fatal("expected allow after window reset")
	}
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := RateLimit(NewRedisLimiter(rdb, 1, time.Minute, "test"), discardLogger(), false)(okHandler())

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/public/book", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		codes = append(codes, rw.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
	if ttl := mr.TTL("test:10.0.0.1"); ttl <= 0 {
		t.Fatalf("expected window expiry on key, got %v", ttl)
	}

	mr.FastForward(time.Minute)
	rw := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/book", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected a fresh window after expiry, got %d", rw.Code)
	}
}

func TestRateLimitFailOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	l := NewRedisLimiter(rdb, 1, time.Minute, "")
	open := RateLimit(l, discardLogger(), true)(okHandler())
	closed := RateLimit(l, discardLogger(), false)(okHandler())

	rw := httptest.NewRecorder()
	open.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	if rw.Code != http.StatusOK {
		t.Fatalf("fail-open: expected 200, got %d", rw.Code)
	}
	rw = httptest.NewRecorder()
	closed.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	if rw.Code != http.StatusServiceUnavailable {
		t.Fatalf("fail-closed: expected 503, got %d", rw.Code)
	}
}

func TestWithCORSPreflight(t *testing.T) {
	h := WithCORS(DefaultCORSPolicy([]string{"https://app.nexsched.com"}))(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
	req.Header.Set("Origin", "https://app.nexsched.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rw.Code)
	}
	if rw.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatal("expected credentials to be allowed")
	}

	if rw.Header().Get("Access-Control-Allow-Origin") != "https://app.nexsched.com" {
		t.Fatalf("expected echoed origin, got %q", rw.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil)
	req.Header.Set("Origin", "https://evil.example")
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("expected no CORS headers for unknown origin")
	}
}

func TestOriginAllowed(t *testing.T) {
	if !OriginAllowed("https://App.Nexsched.com", []string{" https://app.nexsched.com "}) {
		t.Fatal("expected case-insensitive match")
	}
	if !OriginAllowed("https://anything.example", []string{"*"}) {
		t.Fatal("expected wildcard match")
	}
	if OriginAllowed("https://evil.example", []string{"https://app.nexsched.com"}) {
		t.Fatal("expected unknown origin to be rejected")
	}
}

func TestWithRequestID(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if seen != "req-123" || rw.Header().Get(RequestIDHeader) != "req-123" {
		t.Fatalf("expected propagated id, got %q", seen)
	}

	for _, bad := range []string{strings.Repeat("x", 500), "id with spaces", "forged\nline"} {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, bad)
		h.ServeHTTP(httptest.NewRecorder(), req)
		if len(seen) != 36 {
			t.Fatalf("expected generated uuid for %q, got %q", bad, seen)
		}
	}
}

func TestWithMetricsLabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/public/company", okHandler())
	mux.Handle("DELETE /api/v1/admin/services/{id}", okHandler())
	h := WithMetrics(reg, "test", mux)(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/public/company", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/v1/admin/services/s1", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/v1/admin/services/s2", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	expected := `
# HELP test_http_requests_total HTTP requests by method, path and status code.
# TYPE test_http_requests_total counter
test_http_requests_total{code="200",method="DELETE",path="/api/v1/admin/services/{id}"} 2
test_http_requests_total{code="200",method="GET",path="/api/v1/public/company"} 1
test_http_requests_total{code="404",method="GET",path="unmatched"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_http_requests_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestWithTimeoutSkipsStreams(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	h := WithTimeout(10*time.Millisecond, "/api/v1/admin/live")(slow)

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil))
	if rw.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected timeout 503, got %d", rw.Code)
	}

	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/api/v1/admin/live", nil))
	if rw.Code != http.StatusOK {
		t.Fatalf("expected stream path to bypass timeout, got %d", rw.Code)
	}
}

func TestDecodeJSONRejectsTrailingData(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}{"name":"b"}`))
	if err := DecodeJSON(req, &dst); err == nil {
		t.Fatal("expected error for trailing object")
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nome":"a"}`))
	if err := DecodeJSON(req, &dst); err == nil {
		t.Fatal("expected error for unknown field")
	}
}
