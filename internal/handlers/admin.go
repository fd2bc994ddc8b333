package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tscat/internal/logger"
	"tscat/middleware"
)

const adminUsername = "admin"

// verifyAdmin checks password against stored, which is either a bcrypt hash
// or a plain secret.
func verifyAdmin(stored, password string) bool {
	stored = strings.TrimSpace(stored)
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// adminCredentials extracts the password from Basic auth for the admin user
// or from a bearer token.
func adminCredentials(r *http.Request) (string, bool) {
	if username, password, ok := r.BasicAuth(); ok {
		return password, username == adminUsername
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requireAdmin answers 401 unless the request carries the admin password.
func requireAdmin(stored string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			password, ok := adminCredentials(r)
			if !ok || !verifyAdmin(stored, password) {
				logger.Get().Warn().
					Str("event_category", "security").
					Str("request_id", middleware.GetRequestID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("rejected unauthenticated admin request")
				w.Header().Set("WWW-Authenticate", `Basic realm="tscat", charset="UTF-8"`)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
