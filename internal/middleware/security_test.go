package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrapped := SecurityHeadersMiddleware(handler)
	req := httptest.NewRequest(http.MethodGet, "/api/beans", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "geolocation=(), microphone=(), camera=()", rec.Header().Get("Permissions-Policy"))

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "default-src 'none'")
	assert.Contains(t, csp, "frame-ancestors 'none'")
}

func newTestLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		cleanup:  2 * window,
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		rl := newTestLimiter(3, time.Minute)

		assert.True(t, rl.Allow("192.168.1.1"))
		assert.True(t, rl.Allow("192.168.1.1"))
		assert.True(t, rl.Allow("192.168.1.1"))
	})

	t.Run("blocks after exceeding limit", func(t *testing.T) {
		rl := newTestLimiter(2, time.Minute)

		assert.True(t, rl.Allow("10.0.0.1"))
		assert.True(t, rl.Allow("10.0.0.1"))
		assert.False(t, rl.Allow("10.0.0.1"))
	})

	t.Run("different IPs are independent", func(t *testing.T) {
		rl := newTestLimiter(1, time.Minute)

		assert.True(t, rl.Allow("10.0.0.1"))
		assert.False(t, rl.Allow("10.0.0.1"))
		assert.True(t, rl.Allow("10.0.0.2"))
	})

	t.Run("resets after window expires", func(t *testing.T) {
		rl := newTestLimiter(1, 50*time.Millisecond)

		assert.True(t, rl.Allow("10.0.0.1"))
		assert.False(t, rl.Allow("10.0.0.1"))

		time.Sleep(60 * time.Millisecond)
		assert.True(t, rl.Allow("10.0.0.1"))
	})

	t.Run("evicts stale visitors", func(t *testing.T) {
		rl := newTestLimiter(1, time.Minute)
		rl.Allow("10.0.0.1")

		rl.evict(time.Now().Add(3 * time.Minute))
		assert.Empty(t, rl.visitors)
	})
}

func TestNewRateLimiter_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rl := NewRateLimiter(ctx, 5, 10*time.Millisecond)
	assert.True(t, rl.Allow("x"))
	cancel()
}

func TestRateLimitMiddleware(t *testing.T) {
	config := &RateLimitConfig{
		AuthLimiter:   newTestLimiter(2, time.Minute),
		APILimiter:    newTestLimiter(3, time.Minute),
		GlobalLimiter: newTestLimiter(5, time.Minute),
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrapped := RateLimitMiddleware(config)(handler)

	hit := func(method, path, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		return rec
	}

	t.Run("login uses auth limiter", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, hit(http.MethodPost, "/login", "1.1.1.1").Code)
		}

		rec := hit(http.MethodPost, "/login", "1.1.1.1")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	})

	t.Run("api endpoints use api limiter", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, hit(http.MethodGet, "/api/beans", "2.2.2.2").Code)
		}
		assert.Equal(t, http.StatusTooManyRequests, hit(http.MethodGet, "/api/beans", "2.2.2.2").Code)
	})

	t.Run("other endpoints use global limiter", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, hit(http.MethodGet, "/healthz", "3.3.3.3").Code)
		}
		assert.Equal(t, http.StatusTooManyRequests, hit(http.MethodGet, "/healthz", "3.3.3.3").Code)
	})

	t.Run("nil limiter passes through", func(t *testing.T) {
		open := RateLimitMiddleware(&RateLimitConfig{})(handler)
		req := httptest.NewRequest(http.MethodGet, "/api/beans", nil)
		rec := httptest.NewRecorder()
		open.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestLimitBodyMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			if _, err := io.ReadAll(r.Body); err != nil {
				http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	wrapped := LimitBodyMiddleware(handler)

	t.Run("allows small JSON body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/beans", strings.NewReader(`{"name": "test"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		body := strings.NewReader(strings.Repeat("a", MaxBodyBytes+1))
		req := httptest.NewRequest(http.MethodPost, "/api/beans", body)
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)
		require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("handles empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
