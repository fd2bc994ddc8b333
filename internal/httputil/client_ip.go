// Package httputil holds request helpers shared by middleware and handlers.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the address rate limits are keyed on. Forwarding headers
// are only honoured behind a trusted proxy.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		if value := strings.TrimSpace(first); value != "" {
			return value
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// LanguageHints lists the explicit locale choices a request carries, most
// specific first: the lang query parameter, then the named cookie. Empty
// values are skipped; nothing is validated.
func LanguageHints(r *http.Request, cookieName string) []string {
	hints := make([]string, 0, 2)
	add := func(value string) {
		if value = strings.TrimSpace(value); value != "" {
			hints = append(hints, value)
		}
	}

	add(r.URL.Query().Get("lang"))
	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil {
			add(cookie.Value)
		}
	}
	return hints
}
