package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"tscat/internal/httputil"
)

// RateLimitConfig bounds how many requests one client may send per window.
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	// MaxEntries caps the number of tracked clients; the windows closest to
	// expiry are evicted first.
	MaxEntries         int
	ExemptPaths        []string
	ExemptPathPrefixes []string
	// TrustProxy keys clients by X-Forwarded-For / X-Real-IP when set.
	TrustProxy bool
}

// DefaultRateLimitConfig leaves health checks and scraping unlimited.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 300,
		Window:      time.Minute,
		MaxEntries:  10_000,
		ExemptPaths: []string{"/api/health", "/api/ready", "/metrics"},
	}
}

func (c RateLimitConfig) exempt(path string) bool {
	return lo.Contains(c.ExemptPaths, path) ||
		lo.SomeBy(c.ExemptPathPrefixes, func(prefix string) bool { return strings.HasPrefix(path, prefix) })
}

// window is the fixed counting window of one client.
type window struct {
	hits   int
	resets time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	config  RateLimitConfig
	clients map[string]window
}

func newRateLimiter(config RateLimitConfig) *rateLimiter {
	return &rateLimiter{config: config, clients: make(map[string]window)}
}

// RateLimit answers 429 with Retry-After once a client exceeds its budget.
// Preflight requests and exempt paths are never counted.
func RateLimit(config RateLimitConfig) func(http.Handler) http.Handler {
	limiter := newRateLimiter(config)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || config.exempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if ok, retryAfter := limiter.allow(time.Now(), httputil.ClientIP(r, config.TrustProxy)); !ok {
				if retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				}
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allow counts one request of client at now. When the budget is spent it
// returns the whole seconds left in the window.
func (l *rateLimiter) allow(now time.Time, client string) (bool, int) {
	if client == "" {
		return true, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)
	w, tracked := l.clients[client]
	if !tracked || now.After(w.resets) {
		w = window{resets: now.Add(l.config.Window)}
	}
	w.hits++
	l.clients[client] = w
	if w.hits <= l.config.MaxRequests {
		return true, 0
	}
	return false, int(math.Max(0, w.resets.Sub(now).Seconds()))
}

// prune drops expired windows, then evicts the ones closest to expiry until
// at most MaxEntries remain. Callers hold l.mu.
func (l *rateLimiter) prune(now time.Time) {
	for client, w := range l.clients {
		if now.After(w.resets) {
			delete(l.clients, client)
		}
	}
	if l.config.MaxEntries <= 0 || len(l.clients) <= l.config.MaxEntries {
		return
	}
	for len(l.clients) > l.config.MaxEntries {
		oldest := lo.MinBy(lo.Keys(l.clients), func(a, b string) bool {
			return l.clients[a].resets.Before(l.clients[b].resets)
		})
		delete(l.clients, oldest)
	}
}
