package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// WithMetrics records request counts and latencies on reg. The path label is
// the route pattern routes matches, so "/services/{id}" is one series; requests
// no route matches share the "unmatched" label.
func WithMetrics(reg prometheus.Registerer, namespace string, routes *http.ServeMux) Middleware {
	factory := promauto.With(reg)
	m := &httpMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status code.",
		}, []string{"method", "path", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := routeLabel(routes, r)
			sw := &statusCapturingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}
			m.requests.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
			m.duration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

func routeLabel(routes *http.ServeMux, r *http.Request) string {
	pattern := r.Pattern
	if routes != nil {
		_, pattern = routes.Handler(r)
	}
	if pattern == "" {
		return "unmatched"
	}
	// Method-qualified patterns repeat what the method label already says.
	if _, p, ok := strings.Cut(pattern, " "); ok {
		pattern = p
	}
	return pattern
}
