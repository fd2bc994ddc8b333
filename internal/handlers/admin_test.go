package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tscat/internal/handlers"
)

func mustBcryptPasswordHash(t *testing.T, value string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(value), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func postReload(router http.Handler, authorize func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	if authorize != nil {
		authorize(req)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReload_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name      string
		authorize func(*http.Request)
		expected  int
	}{
		{"no credentials", nil, http.StatusUnauthorized},
		{"wrong password", func(r *http.Request) { r.SetBasicAuth("admin", "guess") }, http.StatusUnauthorized},
		{"wrong user", func(r *http.Request) { r.SetBasicAuth("root", testPassword) }, http.StatusUnauthorized},
		{"empty bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") }, http.StatusUnauthorized},
		{"other scheme", func(r *http.Request) { r.Header.Set("Authorization", "Token "+testPassword) }, http.StatusUnauthorized},
		{"basic auth", func(r *http.Request) { r.SetBasicAuth("admin", testPassword) }, http.StatusOK},
		{"bearer token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+testPassword) }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postReload(f.router, tt.authorize)
			assert.Equal(t, tt.expected, rec.Code, rec.Body.String())
			if tt.expected == http.StatusUnauthorized {
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
			}
		})
	}
	_, lastErr := f.translator.LastReload()
	assert.Empty(t, lastErr)
}

func TestReload_BcryptPassword(t *testing.T) {
	f := newFixture(t)
	catalogs := f.catalogs
	catalogs.AdminPassword = mustBcryptPasswordHash(t, "secret")
	router := chi.NewRouter()
	handlers.RegisterI18nRoutes(router, catalogs)

	assert.Equal(t, http.StatusOK, postReload(router, func(r *http.Request) { r.SetBasicAuth("admin", "secret") }).Code)
	assert.Equal(t, http.StatusUnauthorized, postReload(router, func(r *http.Request) { r.SetBasicAuth("admin", catalogs.AdminPassword) }).Code)
}

func TestReload_DisabledWithoutPassword(t *testing.T) {
	f := newFixture(t)
	catalogs := f.catalogs
	catalogs.AdminPassword = "  "
	router := chi.NewRouter()
	handlers.RegisterI18nRoutes(router, catalogs)

	rec := postReload(router, func(r *http.Request) { r.SetBasicAuth("admin", "") })
	assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, rec.Code)
}
