package handlers

import (
	"net/http"

	"github.com/samber/lo"
	"golang.org/x/text/language"

	"tscat/config"
	"tscat/internal/logger"
	"tscat/middleware"
)

// ConfigResponse holds the public configuration exposed to front-ends.
type ConfigResponse struct {
	Domain          string   `json:"domain"`
	SourceLanguage  string   `json:"sourceLanguage"`
	DefaultLocale   string   `json:"defaultLocale"`
	Locales         []string `json:"locales"`
	CacheTTLSeconds int      `json:"cacheTtlSeconds"`
}

// GetConfig returns the public part of the configuration together with the
// locales currently loaded.
func GetConfig(cfg config.Config, source RegistrySource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := ConfigResponse{
			Domain:          cfg.Translations.Domain,
			SourceLanguage:  cfg.Translations.SourceLanguage.String(),
			DefaultLocale:   cfg.Translations.DefaultLocale.String(),
			Locales:         []string{},
			CacheTTLSeconds: int(cfg.CacheTTL.Seconds()),
		}
		if source != nil {
			if registry := source.Registry(); registry != nil {
				resp.Locales = lo.Map(registry.Locales(), func(tag language.Tag, _ int) string {
					return tag.String()
				})
			}
		}

		writeJSON(w, r, http.StatusOK, resp)
		logger.HTTPEvent(r.Method, r.URL.Path, http.StatusOK, 0).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("config retrieved")
	}
}
