package mcp

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// healthTimeout bounds the upstream check behind /health.
	healthTimeout = 5 * time.Second

	// maxBodyBytes caps a single JSON-RPC request body.
	maxBodyBytes = maxLineBytes
)

// RouterOptions configures the HTTP transport.
type RouterOptions struct {
	// Health checks the upstream. Nil reports healthy.
	Health func(ctx context.Context) bool
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// AuthToken, when set, is required on every route except /health.
	AuthToken string
	// RateLimit is requests per second per client. Zero disables limiting.
	RateLimit float64
	RateBurst int
}

// NewHTTPRouter mounts the SSE and Streamable HTTP transports with health and metrics.
// The SSE handler is returned so the caller can close sessions on shutdown.
func NewHTTPRouter(server *Server, opts RouterOptions) (http.Handler, *SSEHandler) {
	sse := NewSSEHandler(server)
	streamable := NewStreamableHandler(server)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/health", healthHandler(server.version, opts.Health))

	r.Group(func(r chi.Router) {
		r.Use(tokenAuth(opts.AuthToken))
		if opts.RateLimit > 0 {
			burst := opts.RateBurst
			if burst <= 0 {
				burst = int(opts.RateLimit)
			}
			r.Use(RateLimitMiddleware(NewClientRateLimiter(opts.RateLimit, max(burst, 1))))
		}

		r.Get("/sse", sse.handleSSE)
		r.With(maxBody(maxBodyBytes)).Post("/message", sse.handleMessage)
		r.With(maxBody(maxBodyBytes)).Post("/mcp", streamable.ServeHTTP)
		if opts.Gatherer != nil {
			r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
		}
	})

	return r, sse
}

type healthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func healthHandler(version string, check func(ctx context.Context) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if !check(ctx) {
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(healthStatus{Status: status, Version: version})
	}
}

// tokenAuth accepts the token as X-Auth-Token or an Authorization bearer.
func tokenAuth(token string) func(http.Handler) http.Handler {
	if token == "" {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-Auth-Token")
			if provided == "" {
				if auth, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
					provided = auth
				}
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// securityHeaders sets the headers every response carries.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// maxBody rejects declared oversize bodies and caps the rest.
func maxBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
