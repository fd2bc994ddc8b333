package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"tscat/internal/httputil"
	"tscat/internal/i18n"
)

// LocaleKey is the context key for the resolved request locale.
const LocaleKey contextKey = "locale"

// LocaleCookie remembers the locale a client picked with ?lang=.
const LocaleCookie = "tscat_lang"

// Locale resolves the request locale against the registry returned by
// current and stores it in the request context. current is called per
// request so reloads are picked up.
func Locale(current func() *i18n.Registry, fallback language.Tag) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := ResolveLocale(r, current(), fallback)
			w.Header().Set("Content-Language", tag.String())
			ctx := context.WithValue(r.Context(), LocaleKey, tag)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ResolveLocale picks a supported locale from, in order: the lang query
// parameter, the locale cookie, Accept-Language, then fallback.
func ResolveLocale(r *http.Request, registry *i18n.Registry, fallback language.Tag) language.Tag {
	if registry == nil {
		return fallback
	}
	for _, hint := range httputil.LanguageHints(r, LocaleCookie) {
		if tag, ok := registry.FromQueryLanguage(hint); ok {
			return tag
		}
	}
	if header := strings.TrimSpace(r.Header.Get("Accept-Language")); header != "" {
		if tags, _, err := language.ParseAcceptLanguage(header); err == nil && len(tags) > 0 {
			if tag := registry.Match(tags...); tag != registry.SourceTag() || acceptsSource(tags, registry) {
				return tag
			}
		}
	}
	if registry.Supports(fallback) {
		return fallback
	}
	return registry.Match(fallback)
}

// acceptsSource reports whether the client really asked for the source
// language rather than Match falling back to it.
func acceptsSource(tags []language.Tag, registry *i18n.Registry) bool {
	source, _ := registry.SourceTag().Base()
	for _, tag := range tags {
		if base, _ := tag.Base(); base == source {
			return true
		}
	}
	return false
}

// LocaleFromContext returns the locale stored by Locale.
func LocaleFromContext(ctx context.Context) (language.Tag, bool) {
	tag, ok := ctx.Value(LocaleKey).(language.Tag)
	return tag, ok
}
