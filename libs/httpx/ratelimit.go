package httpx

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Decision is the outcome of one hit against a fixed window.
type Decision struct {
	Allowed bool
	// RetryAfter is how long until the caller's window resets.
	RetryAfter time.Duration
}

// Limiter counts hits per key in fixed windows.
type Limiter interface {
	Take(ctx context.Context, key string) (Decision, error)
}

// RateLimit rejects clients over the limiter's budget with 429. When the
// limiter itself fails, failOpen decides between letting the request through
// and answering 503.
func RateLimit(l Limiter, logger *slog.Logger, failOpen bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := l.Take(r.Context(), clientKey(r))
			if err != nil {
				if logger != nil {
					logger.Warn("rate limiter unavailable", "err", err, "fail_open", failOpen)
				}
				if failOpen {
					next.ServeHTTP(w, r)
					return
				}
				WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "rate limiter unavailable"})
				return
			}
			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				WriteJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MemoryLimiter keeps windows in process. Each replica counts on its own.
type MemoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	windows   map[string]memWindow
	lastSweep time.Time
}

type memWindow struct {
	hits  int
	reset time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	limit, window = limiterDefaults(limit, window)
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: map[string]memWindow{},
	}
}

func (m *MemoryLimiter) Take(_ context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= m.window {
		m.lastSweep = now
		for k, w := range m.windows {
			if !now.Before(w.reset) {
				delete(m.windows, k)
			}
		}
	}

	w, ok := m.windows[key]
	if !ok || !now.Before(w.reset) {
		w = memWindow{reset: now.Add(m.window)}
	}
	if w.hits >= m.limit {
		return Decision{RetryAfter: w.reset.Sub(now)}, nil
	}
	w.hits++
	m.windows[key] = w
	return Decision{Allowed: true}, nil
}

func limiterDefaults(limit int, window time.Duration) (int, time.Duration) {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return limit, window
}

// clientKey prefers the first X-Forwarded-For hop set by the edge proxy.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
