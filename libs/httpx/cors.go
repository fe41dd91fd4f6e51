package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy describes which browser origins may call the API.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSPolicy lets the SPA at origins call the API with the session
// cookie.
func DefaultCORSPolicy(origins []string) CORSPolicy {
	return CORSPolicy{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	}
}

// OriginAllowed reports whether origin appears in allowed. "*" matches any
// origin and the comparison ignores case.
func OriginAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		a = strings.TrimSpace(a)
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// WithCORS answers preflights and decorates responses for allowed origins.
// With no allowed origins it passes requests through untouched.
func WithCORS(p CORSPolicy) Middleware {
	origins := compact(p.AllowedOrigins)
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	// Everything except Allow-Origin is the same for every matching request.
	fixed := http.Header{}
	if p.AllowCredentials {
		fixed.Set("Access-Control-Allow-Credentials", "true")
	}
	if m := compact(p.AllowedMethods); len(m) > 0 {
		fixed.Set("Access-Control-Allow-Methods", strings.Join(m, ", "))
	}
	if h := compact(p.AllowedHeaders); len(h) > 0 {
		fixed.Set("Access-Control-Allow-Headers", strings.Join(h, ", "))
	}
	if secs := int(p.MaxAge / time.Second); secs > 0 {
		fixed.Set("Access-Control-Max-Age", strconv.Itoa(secs))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !OriginAllowed(origin, origins) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			// A wildcard cannot be echoed back when cookies ride along.
			if !p.AllowCredentials && OriginAllowed("*", origins) {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			for k, v := range fixed {
				h[k] = v
			}
			h.Add("Vary", "Origin")

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if preflight {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
