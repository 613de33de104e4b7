package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// MaxBodyBytes caps request bodies. Beans and shots are a few hundred bytes.
const MaxBodyBytes = 1 << 20

// SecurityHeadersMiddleware sets conservative headers for a JSON/CSV API.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// LimitBodyMiddleware rejects request bodies larger than MaxBodyBytes.
func LimitBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

type visitor struct {
	count       int
	windowStart time.Time
}

// RateLimiter is a fixed-window request counter keyed by client IP.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
	cleanup  time.Duration
}

// NewRateLimiter returns a limiter allowing rate requests per window. Stale
// visitors are evicted until ctx is cancelled.
func NewRateLimiter(ctx context.Context, rate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		cleanup:  2 * window,
	}
	go rl.cleanupLoop(ctx)
	return rl
}

// Allow records a request from key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.visitors[key]
	if !ok || now.Sub(v.windowStart) >= rl.window {
		rl.visitors[key] = &visitor{count: 1, windowStart: now}
		return true
	}
	if v.count >= rl.rate {
		return false
	}
	v.count++
	return true
}

func (rl *RateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evict(time.Now())
		}
	}
}

func (rl *RateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.visitors {
		if now.Sub(v.windowStart) > rl.cleanup {
			delete(rl.visitors, key)
		}
	}
}

// RateLimitConfig assigns limiters to route groups.
type RateLimitConfig struct {
	AuthLimiter   *RateLimiter // /login, /logout
	APILimiter    *RateLimiter // /api/*
	GlobalLimiter *RateLimiter // everything else
}

// NewDefaultRateLimitConfig returns the production limits.
func NewDefaultRateLimitConfig(ctx context.Context) *RateLimitConfig {
	return &RateLimitConfig{
		AuthLimiter:   NewRateLimiter(ctx, 10, time.Minute),
		APILimiter:    NewRateLimiter(ctx, 300, time.Minute),
		GlobalLimiter: NewRateLimiter(ctx, 120, time.Minute),
	}
}

func (c *RateLimitConfig) limiterFor(path string) *RateLimiter {
	switch {
	case path == "/login" || path == "/logout" || strings.HasPrefix(path, "/auth/"):
		return c.AuthLimiter
	case strings.HasPrefix(path, "/api/"):
		return c.APILimiter
	default:
		return c.GlobalLimiter
	}
}

// RateLimitMiddleware answers 429 once a client exceeds its route group's limit.
func RateLimitMiddleware(config *RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rl := config.limiterFor(r.URL.Path)
			if rl == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := GetClientIP(r)
			if !rl.Allow(ip) {
				log.Warn().
					Str("client_ip", ip).
					Str("path", r.URL.Path).
					Msg("Rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
