package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBodyLimit(t *testing.T) {
	handler := BodyLimit(100)(okHandler())

	t.Run("nil body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
	t.Run("body within limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/reload", strings.NewReader("small body"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
	t.Run("body exceeds limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/reload", strings.NewReader(strings.Repeat("a", 200)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestRateLimit_Prune(t *testing.T) {
	limiter := newRateLimiter(RateLimitConfig{MaxRequests: 10, Window: 100 * time.Millisecond, MaxEntries: 2})
	now := time.Now()
	limiter.clients["ip1"] = window{hits: 1, resets: now.Add(-time.Second)}
	limiter.clients["ip2"] = window{hits: 1, resets: now.Add(-time.Second)}
	limiter.clients["ip3"] = window{hits: 1, resets: now.Add(time.Hour)}

	limiter.prune(now)

	assert.Len(t, limiter.clients, 1)
	assert.Contains(t, limiter.clients, "ip3")
}

func TestRateLimit_MaxEntries(t *testing.T) {
	limiter := newRateLimiter(RateLimitConfig{MaxRequests: 100, Window: time.Minute, MaxEntries: 3})
	now := time.Now()
	for i := 0; i < 10; i++ {
		allowed, _ := limiter.allow(now.Add(time.Duration(i)*time.Millisecond), "192.0.2."+strconv.Itoa(i))
		assert.True(t, allowed)
	}
	// prune runs before the new client is added
	assert.Len(t, limiter.clients, 4)
	assert.Contains(t, limiter.clients, "192.0.2.9")
	assert.NotContains(t, limiter.clients, "192.0.2.0")
}

func TestRateLimit_RetryAfter(t *testing.T) {
	limiter := newRateLimiter(RateLimitConfig{MaxRequests: 1, Window: 30 * time.Second})
	now := time.Now()
	allowed, _ := limiter.allow(now, "ip")
	assert.True(t, allowed)
	allowed, retryAfter := limiter.allow(now.Add(10*time.Second), "ip")
	assert.False(t, allowed)
	assert.Equal(t, 20, retryAfter)

	allowed, _ = limiter.allow(now.Add(31*time.Second), "ip")
	assert.True(t, allowed)
}

func TestRateLimitConfig_Exempt(t *testing.T) {
	config := DefaultRateLimitConfig()
	config.ExemptPathPrefixes = []string{"/api/export/"}

	tests := map[string]bool{
		"/api/health":       true,
		"/metrics":          true,
		"/api/export/fi.ts": true,
		"/api/translate":    false,
		"/api/reload":       false,
	}
	for path, expected := range tests {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, expected, config.exempt(path))
		})
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{MaxRequests: 2, Window: time.Minute, MaxEntries: 100})(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/translate", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/translate", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// A spoofed X-Forwarded-For does not reset the budget without TrustProxy.
	req = httptest.NewRequest(http.MethodGet, "/api/translate", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimit_OptionsMethod(t *testing.T) {
	handler := RateLimit(RateLimitConfig{MaxRequests: 0, Window: time.Minute})(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/translate", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSanitizeRequestID(t *testing.T) {
	assert.Equal(t, "abc-123_x.y:z", sanitizeRequestID(" abc-123_x.y:z "))
	assert.Empty(t, sanitizeRequestID("bad id"))
	assert.Empty(t, sanitizeRequestID(strings.Repeat("a", 129)))
	assert.NotEmpty(t, generateRequestID())
}
