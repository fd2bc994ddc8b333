package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tscat/config"
	"tscat/internal/cache"
	"tscat/internal/handlers"
	"tscat/internal/i18n"
	"tscat/internal/logger"
	"tscat/internal/metrics"
	"tscat/internal/validation"
	"tscat/internal/version"
	"tscat/middleware"
)

const (
	maxBodyBytes         = 1 << 20
	cacheCleanupInterval = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(logger.Options{Level: "info"})
		logger.Get().Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize structured logger from config
	logger.Init(cfg.LoggerOptions())
	log := logger.Get()

	log.Info().
		Str("version", version.Version).
		Msg("tscat starting")

	log.Info().
		Str("env", string(cfg.Env)).
		Str("settings_path", cfg.SettingsPath).
		Str("translations_dir", cfg.Translations.Dir).
		Str("domain", cfg.Translations.Domain).
		Str("default_locale", cfg.Translations.DefaultLocale.String()).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Configuration loaded")

	if err := validation.ValidateTranslationsDir(cfg.Translations.Dir); err != nil {
		log.Fatal().Err(err).Msg("Translations directory is not usable")
	}
	translator, err := newTranslator(cfg)
	if err != nil {
		logger.CatalogError(cfg.Translations.Domain, cfg.Translations.Dir, err).Msg("Failed to load catalogs")
		os.Exit(1)
	}
	handlers.LogRegistry(translator.Registry(), "catalog loaded")

	payloads := cache.New[[]byte](cfg.CacheTTL)
	lookups := metrics.NewLookups()
	catalogs := handlers.Catalogs{
		Translator:    translator,
		DefaultLocale: cfg.Translations.DefaultLocale,
		Payloads:      payloads,
		Lookups:       lookups,
		AdminPassword: cfg.AdminPassword,
	}
	if cfg.AdminPassword == "" {
		log.Info().Str("event_category", "security").Msg("TSCAT_ADMIN_PASSWORD not set, POST /api/reload disabled; send SIGHUP to reload")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(metrics.NewCatalogCollector(translator, payloads))
	registry.MustRegister(lookups.Collector())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      buildRouter(cfg, catalogs, registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	stopCleanup := make(chan struct{})
	go cleanupLoop(payloads, cacheCleanupInterval, stopCleanup)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	sig := waitForShutdown(signals, catalogs.Reload)
	signal.Stop(signals)
	close(stopCleanup)

	log.Info().Str("signal", sig.String()).Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server stopped")
}

func newTranslator(cfg config.Config) (*i18n.Translator, error) {
	translations := cfg.Translations
	return i18n.NewTranslator(func() (*i18n.Registry, error) {
		return i18n.LoadDir(translations.Dir, translations.Domain, translations.SourceLanguage)
	}, translations.DefaultLocale)
}

// waitForShutdown reloads catalogs on SIGHUP and returns the first other
// signal received.
func waitForShutdown(signals <-chan os.Signal, reload func() error) os.Signal {
	log := logger.Get()
	for sig := range signals {
		if sig != syscall.SIGHUP {
			return sig
		}
		if err := reload(); err != nil {
			log.Error().Err(err).Str("event_category", "catalog").Msg("Reload on SIGHUP failed, previous catalogs kept")
		}
	}
	return nil
}

func cleanupLoop(payloads *cache.Cache[[]byte], every time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			payloads.Cleanup()
		case <-stop:
			return
		}
	}
}

func buildRouter(cfg config.Config, catalogs handlers.Catalogs, registry *prometheus.Registry) chi.Router {
	r := chi.NewRouter()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowCredentials = cfg.CORS.AllowCredentials
	rateLimit := middleware.DefaultRateLimitConfig()
	rateLimit.TrustProxy = cfg.IsProd()

	// Middleware must be registered before any routes
	r.Use(middleware.RequestID)
	r.Use(middleware.Locale(catalogs.Translator.Registry, catalogs.DefaultLocale))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.RateLimit(rateLimit))
	r.Use(middleware.BodyLimit(maxBodyBytes))
	r.Use(middleware.CSRFProtection)

	// Health and readiness checks
	r.Get("/api/health", handlers.HealthCheck)
	r.Get("/api/ready", handlers.ReadinessCheck(catalogs.Translator))
	r.Get("/api/version", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(version.Info())
	})
	r.Get("/api/config", handlers.GetConfig(cfg, catalogs.Translator))
	r.Get("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP)
	handlers.RegisterI18nRoutes(r, catalogs)

	return r
}
