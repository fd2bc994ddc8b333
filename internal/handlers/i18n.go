package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"golang.org/x/text/language"

	"tscat/internal/cache"
	"tscat/internal/catalog"
	tserrors "tscat/internal/errors"
	"tscat/internal/export"
	"tscat/internal/i18n"
	"tscat/internal/logger"
	"tscat/internal/metrics"
	"tscat/middleware"
)

// Catalogs bundles what the translation routes need. Payloads and Lookups
// may be nil.
type Catalogs struct {
	Translator    *i18n.Translator
	DefaultLocale language.Tag
	Payloads      *cache.Cache[[]byte]
	Lookups       *metrics.Lookups
	// AdminPassword guards POST /api/reload. It may be a bcrypt hash; when
	// empty the route is not registered.
	AdminPassword string
}

// Reload rebuilds the registry from disk. On success cached payloads are
// dropped; on failure the previous catalogs keep serving.
func (c Catalogs) Reload() error {
	start := time.Now()
	if err := c.Translator.Reload(); err != nil {
		return fmt.Errorf("%w: %w", tserrors.ErrReloadFailed, err)
	}
	if c.Payloads != nil {
		c.Payloads.Clear()
	}
	LogRegistry(c.Translator.Registry(), "catalog reloaded")
	logger.Get().Info().
		Str("event_category", "catalog").
		Dur("duration", time.Since(start)).
		Str("active", c.Translator.Active().String()).
		Msg("translations reloaded")
	return nil
}

// LogRegistry writes one catalog event per loaded locale.
func LogRegistry(registry *i18n.Registry, msg string) {
	for _, tag := range registry.Locales() {
		cat, ok := registry.Catalog(tag)
		if !ok {
			continue
		}
		stats := cat.Stats()
		logger.CatalogEvent(registry.Domain(), tag.String(), registry.File(tag)).
			Int("messages", stats.Messages).
			Int("unfinished", stats.Unfinished).
			Msg(msg)
	}
}

// LocaleInfo describes one served locale.
type LocaleInfo struct {
	Locale string         `json:"locale"`
	File   string         `json:"file,omitempty"`
	Source bool           `json:"source"`
	Stats  *catalog.Stats `json:"stats,omitempty"`
}

// TranslateResponse is the answer of /api/translate.
type TranslateResponse struct {
	Language    string `json:"language"`
	Context     string `json:"context"`
	Source      string `json:"source"`
	Comment     string `json:"comment,omitempty"`
	Translation string `json:"translation"`
	Found       bool   `json:"found"`
}

type reloadResponse struct {
	ReloadedAt time.Time `json:"reloadedAt"`
	Locales    []string  `json:"locales"`
}

// RegisterI18nRoutes exposes catalog lookups, payloads and exports.
func RegisterI18nRoutes(router chi.Router, catalogs Catalogs) {
	router.Get("/api/locales", catalogs.listLocales)
	router.Get("/api/i18n", catalogs.payload)
	router.Get("/api/translate", catalogs.translate)
	router.Get("/api/export/{file}", catalogs.export)
	if password := strings.TrimSpace(catalogs.AdminPassword); password != "" {
		router.With(requireAdmin(password)).Post("/api/reload", catalogs.reload)
	}
}

func (c Catalogs) locale(r *http.Request, registry *i18n.Registry) language.Tag {
	if tag, ok := middleware.LocaleFromContext(r.Context()); ok && registry.Supports(tag) {
		return tag
	}
	return middleware.ResolveLocale(r, registry, c.DefaultLocale)
}

func (c Catalogs) listLocales(w http.ResponseWriter, r *http.Request) {
	registry := c.Translator.Registry()
	locales := lo.Map(registry.Locales(), func(tag language.Tag, _ int) LocaleInfo {
		info := LocaleInfo{Locale: tag.String(), File: registry.File(tag), Source: tag == registry.SourceTag()}
		if cat, ok := registry.Catalog(tag); ok {
			stats := cat.Stats()
			info.Stats = &stats
		}
		return info
	})
	writeJSON(w, r, http.StatusOK, locales)
}

func (c Catalogs) payload(w http.ResponseWriter, r *http.Request) {
	registry := c.Translator.Registry()
	tag := c.locale(r, registry)

	build := func() ([]byte, error) {
		cat, _ := registry.Catalog(tag)
		return json.Marshal(export.JSON(cat, tag.String()))
	}
	var (
		data []byte
		err  error
	)
	if c.Payloads != nil {
		// Keyed by registry generation too, so a request racing a reload
		// cannot cache a payload of the replaced catalogs.
		data, _, err = c.Payloads.GetOrLoad(fmt.Sprintf("%d/%s", registry.Generation(), tag), build)
	} else {
		data, err = build()
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err, "failed to build i18n payload")
		return
	}

	if _, served := registry.FromQueryLanguage(r.URL.Query().Get("lang")); served {
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.LocaleCookie,
			Value:    tag.String(),
			Path:     "/",
			MaxAge:   365 * 24 * 60 * 60,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		logger.HTTPError(r.Method, r.URL.Path, http.StatusOK, err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("failed to write i18n response")
	}
}

func (c Catalogs) translate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	context := query.Get("context")
	source := query.Get("source")
	comment := query.Get("comment")
	if context == "" || source == "" {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: context and source are required", tserrors.ErrInvalidQuery), "invalid translate query")
		return
	}
	args := lo.Map(query["arg"], func(arg string, _ int) any { return arg })

	registry := c.Translator.Registry()
	tag := c.locale(r, registry)
	_, found := registry.Lookup(tag, context, source, comment)

	var translation string
	if raw := query.Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: n must be an integer", tserrors.ErrInvalidQuery), "invalid translate query")
			return
		}
		translation = registry.TranslateN(tag, context, source, comment, n, args...)
	} else {
		translation = registry.Translate(tag, context, source, comment, args...)
	}
	if c.Lookups != nil {
		c.Lookups.Observe(tag.String(), found)
	}

	writeJSON(w, r, http.StatusOK, TranslateResponse{
		Language:    tag.String(),
		Context:     context,
		Source:      source,
		Comment:     comment,
		Translation: translation,
		Found:       found,
	})
}

func (c Catalogs) export(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	dot := strings.LastIndex(file, ".")
	if dot <= 0 {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: %q", tserrors.ErrUnsupportedFormat, file), "invalid export name")
		return
	}
	format, err := export.ParseFormat(file[dot+1:])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err, "invalid export format")
		return
	}
	registry := c.Translator.Registry()
	tag, ok := registry.FromQueryLanguage(file[:dot])
	cat, hasCatalog := registry.Catalog(tag)
	if !ok || !hasCatalog {
		writeError(w, r, http.StatusNotFound, fmt.Errorf("%w: %s", tserrors.ErrLocaleNotFound, file[:dot]), "export of unknown locale")
		return
	}
	data, err := export.Render(cat, format)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err, "failed to render export")
		return
	}
	name := fmt.Sprintf("%s_%s.%s", registry.Domain(), strings.ReplaceAll(tag.String(), "-", "_"), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := w.Write(data); err != nil {
		logger.HTTPError(r.Method, r.URL.Path, http.StatusOK, err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("failed to write export")
	}
}

func (c Catalogs) reload(w http.ResponseWriter, r *http.Request) {
	if err := c.Reload(); err != nil {
		writeError(w, r, http.StatusInternalServerError, err, "reload failed, previous catalogs kept")
		return
	}
	at, _ := c.Translator.LastReload()
	locales := lo.Map(c.Translator.Registry().Locales(), func(tag language.Tag, _ int) string { return tag.String() })
	writeJSON(w, r, http.StatusOK, reloadResponse{ReloadedAt: at.UTC(), Locales: locales})
}
