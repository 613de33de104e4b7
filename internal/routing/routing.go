package routing

import (
	"context"
	"net/http"

	"shotlog/internal/handlers"
	"shotlog/internal/metrics"
	"shotlog/internal/middleware"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Config holds the configuration needed for setting up routes
type Config struct {
	Handlers *handlers.Handler
	Logger   zerolog.Logger

	// RateLimits overrides the default limiters. Limiter cleanup stops when
	// the context passed to SetupRouter is cancelled.
	RateLimits *middleware.RateLimitConfig

	// Tracing wraps the router in an otelhttp handler
	Tracing bool
}

// SetupRouter creates and configures the HTTP router with all routes and middleware
func SetupRouter(ctx context.Context, cfg Config) http.Handler {
	h := cfg.Handlers
	mux := http.NewServeMux()

	// Create CrossOriginProtection for CSRF protection
	cop := http.NewCrossOriginProtection()
	protect := func(fn http.HandlerFunc) http.HandlerFunc {
		return cop.Handler(fn).ServeHTTP
	}
	// Routes that need a logged-in alias
	authed := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireUser(fn)
	}

	// Login by alias
	mux.Handle("POST /login", protect(h.HandleLogin))
	mux.Handle("POST /logout", protect(h.HandleLogout))

	// Public API: form choices and the advice engine
	mux.HandleFunc("GET /api/options", h.HandleOptions)
	mux.HandleFunc("GET /api/dose", h.HandleDose)
	mux.Handle("POST /api/advice", protect(h.HandleAdvice))
	mux.HandleFunc("GET /api/stats", h.HandleStats)

	// Per-user API
	mux.Handle("GET /api/me", authed(h.HandleAPIMe))

	mux.Handle("GET /api/beans", authed(h.HandleBeanList))
	mux.Handle("POST /api/beans", authed(protect(h.HandleBeanCreate)))
	mux.Handle("GET /api/beans/{id}", authed(h.HandleBeanGet))
	mux.Handle("PUT /api/beans/{id}", authed(protect(h.HandleBeanUpdate)))

	mux.Handle("GET /api/suggestions/{field}", authed(h.HandleSuggestions))

	mux.Handle("GET /api/beans/{id}/shots", authed(h.HandleBeanShots))
	mux.Handle("POST /api/beans/{id}/shots", authed(protect(h.HandleShotCreate)))
	mux.Handle("GET /api/shots", authed(h.HandleShotList))
	mux.Handle("GET /api/shots/export", authed(h.HandleShotExport))

	// Operations
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Apply middleware in order (outermost first, innermost last)
	var handler http.Handler = mux

	// 1. Limit request body size (innermost - runs first on request)
	handler = middleware.LimitBodyMiddleware(handler)

	// 2. Resolve the alias from header or cookie
	handler = middleware.UserMiddleware(handler)

	// 3. Apply rate limiting
	rateLimitConfig := cfg.RateLimits
	if rateLimitConfig == nil {
		rateLimitConfig = middleware.NewDefaultRateLimitConfig(ctx)
	}
	handler = middleware.RateLimitMiddleware(rateLimitConfig)(handler)

	// 4. Apply security headers
	handler = middleware.SecurityHeadersMiddleware(handler)

	// 5. Compress responses
	handler = gzhttp.GzipHandler(handler)

	// 6. Apply logging middleware
	handler = middleware.LoggingMiddleware(cfg.Logger)(handler)

	// 7. Trace requests (outermost - wraps everything)
	if cfg.Tracing {
		handler = otelhttp.NewHandler(handler, "shotlog",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + metrics.NormalizePath(r.URL.Path)
			}),
		)
	}

	return handler
}
