package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	tserrors "tscat/internal/errors"
	"tscat/internal/logger"
	"tscat/internal/validation"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

const (
	defaultPort            = "52000"
	defaultTranslationsDir = "translations"
	defaultCacheTTL        = 5 * time.Minute
)

// Config holds application configuration.
type Config struct {
	Env           Environment
	Port          string
	LogLevel      string
	LogFormat     string
	LogOutput     string
	LogFilePath   string
	CORS          CORSConfig
	Translations  TranslationsConfig
	CacheTTL      time.Duration
	// AdminPassword guards POST /api/reload, plain or bcrypt-hashed.
	AdminPassword string
	// SettingsPath is the settings file the configuration came from, if any.
	SettingsPath  string
}

// CORSConfig holds CORS-specific configuration.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

// TranslationsConfig says where catalogs live and which locale the service
// answers in when a request expresses no preference.
type TranslationsConfig struct {
	Dir            string
	Domain         string
	SourceLanguage language.Tag
	DefaultLocale  language.Tag
}

type SettingsFile struct {
	App          AppSettings          `json:"app"`
	CORS         CORSSettings         `json:"cors"`
	Translations TranslationsSettings `json:"translations"`
}

type AppSettings struct {
	Env     string          `json:"env"`
	Logging LoggingSettings `json:"logging"`
	Port    int             `json:"port"`
}

type LoggingSettings struct {
	Level    string `json:"level"`
	Format   string `json:"format"`
	Output   string `json:"output"`
	FilePath string `json:"file_path"`
}

type CORSSettings struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowCredentials bool     `json:"allow_credentials"`
}

type TranslationsSettings struct {
	Dir            string `json:"dir"`
	Domain         string `json:"domain"`
	SourceLanguage string `json:"source_language"`
	DefaultLocale  string `json:"default_locale"`
	// CacheTTL is a Go duration string such as "5m".
	CacheTTL string `json:"cache_ttl"`
}

// Load reads configuration from a settings file when one is found, else
// from environment variables. A .env file in the working directory is
// loaded first.
func Load() (Config, error) {
	_ = godotenv.Load()

	settings, settingsPath, err := loadSettingsFile()
	switch {
	case err == nil:
		cfg, buildErr := buildConfigFromSettings(*settings)
		if buildErr != nil {
			return Config{}, fmt.Errorf("invalid settings file %s: %w", settingsPath, buildErr)
		}
		cfg.SettingsPath = settingsPath
		cfg.AdminPassword = strings.TrimSpace(getEnv("TSCAT_ADMIN_PASSWORD", ""))
		return cfg, nil
	case !errors.Is(err, tserrors.ErrSettingsNotFound):
		return Config{}, err
	}

	env := parseEnv(getEnv("APP_ENV", "dev"))
	cfg := Config{
		Env:         env,
		Port:        getEnv("PORT", defaultPort),
		LogLevel:    getEnv("LOG_LEVEL", defaultLogLevel(env)),
		LogFormat:   getEnv("LOG_FORMAT", defaultLogFormat(env)),
		LogOutput:   getEnv("LOG_OUTPUT", "stdout"),
		LogFilePath: getEnv("LOG_FILE_PATH", ""),
		CORS:        loadCORSConfig(env),
	}
	translations, ttl, err := buildTranslations(TranslationsSettings{
		Dir:            getEnv("TSCAT_TRANSLATIONS_DIR", ""),
		Domain:         getEnv("TSCAT_DOMAIN", ""),
		SourceLanguage: getEnv("TSCAT_SOURCE_LANGUAGE", ""),
		DefaultLocale:  getEnv("TSCAT_DEFAULT_LOCALE", ""),
		CacheTTL:       getEnv("TSCAT_CACHE_TTL", ""),
	})
	if err != nil {
		return Config{}, err
	}
	cfg.Translations = translations
	cfg.CacheTTL = ttl
	cfg.AdminPassword = strings.TrimSpace(getEnv("TSCAT_ADMIN_PASSWORD", ""))
	return cfg, nil
}

func loadSettingsFile() (*SettingsFile, string, error) {
	if settingsPath := strings.TrimSpace(getEnv("SETTINGS_PATH", "")); settingsPath != "" {
		settings, err := readSettings(settingsPath)
		return settings, settingsPath, err
	}

	envName := strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", "dev")))
	candidates := []string{fmt.Sprintf("settings.%s.json", envName), "settings.json", "/etc/tscat/settings.json"}
	for _, candidate := range candidates {
		absPath, absErr := filepath.Abs(candidate)
		if absErr != nil {
			continue
		}
		if _, statErr := os.Stat(absPath); statErr != nil {
			continue
		}
		settings, err := readSettings(absPath)
		return settings, absPath, err
	}
	return nil, "", tserrors.ErrSettingsNotFound
}

func readSettings(path string) (*SettingsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	var settings SettingsFile
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", tserrors.ErrInvalidSettings, path, err)
	}
	return &settings, nil
}

func buildConfigFromSettings(settings SettingsFile) (Config, error) {
	env := parseEnv(firstNonEmpty(settings.App.Env, "dev"))
	port := defaultPort
	if settings.App.Port > 0 {
		port = strconv.Itoa(settings.App.Port)
	}
	cors := loadCORSConfig(env)
	if len(settings.CORS.AllowedOrigins) > 0 {
		cors.AllowedOrigins = settings.CORS.AllowedOrigins
		cors.AllowCredentials = settings.CORS.AllowCredentials
	}
	translations, ttl, err := buildTranslations(settings.Translations)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Env:          env,
		Port:         port,
		LogLevel:     firstNonEmpty(settings.App.Logging.Level, defaultLogLevel(env)),
		LogFormat:    firstNonEmpty(settings.App.Logging.Format, defaultLogFormat(env)),
		LogOutput:    firstNonEmpty(settings.App.Logging.Output, "stdout"),
		LogFilePath:  strings.TrimSpace(settings.App.Logging.FilePath),
		CORS:         cors,
		Translations: translations,
		CacheTTL:     ttl,
	}, nil
}

func buildTranslations(settings TranslationsSettings) (TranslationsConfig, time.Duration, error) {
	cfg := TranslationsConfig{
		Dir:            firstNonEmpty(settings.Dir, defaultTranslationsDir),
		Domain:         strings.TrimSpace(settings.Domain),
		SourceLanguage: language.English,
	}
	if err := validation.ValidateDomain(cfg.Domain); err != nil {
		return TranslationsConfig{}, 0, err
	}
	if value := strings.TrimSpace(settings.SourceLanguage); value != "" {
		tag, err := validation.ValidateLocale(value)
		if err != nil {
			return TranslationsConfig{}, 0, err
		}
		cfg.SourceLanguage = tag
	}
	cfg.DefaultLocale = cfg.SourceLanguage
	if value := strings.TrimSpace(settings.DefaultLocale); value != "" {
		tag, err := validation.ValidateLocale(value)
		if err != nil {
			return TranslationsConfig{}, 0, err
		}
		cfg.DefaultLocale = tag
	}

	ttl := defaultCacheTTL
	if value := strings.TrimSpace(settings.CacheTTL); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return TranslationsConfig{}, 0, fmt.Errorf("%w: %q", tserrors.ErrInvalidCacheTTL, value)
		}
		ttl = parsed
	}
	if err := validation.ValidateCacheTTL(ttl); err != nil {
		return TranslationsConfig{}, 0, err
	}
	return cfg, ttl, nil
}

// LoggerOptions maps the logging fields onto logger.Init options.
func (c Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level:    c.LogLevel,
		Output:   c.LogOutput,
		Format:   c.LogFormat,
		FilePath: c.LogFilePath,
	}
}

// IsDev returns true if the environment is development.
func (c Config) IsDev() bool {
	return c.Env == EnvDev
}

// IsProd returns true if the environment is production.
func (c Config) IsProd() bool {
	return c.Env == EnvProd
}

func parseEnv(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "production":
		return EnvProd
	default:
		return EnvDev
	}
}

func defaultLogLevel(env Environment) string {
	if env == EnvProd {
		return "info"
	}
	return "debug"
}

func defaultLogFormat(env Environment) string {
	if env == EnvProd {
		return "json"
	}
	return "console"
}

func loadCORSConfig(env Environment) CORSConfig {
	if originsEnv := getEnv("CORS_ALLOWED_ORIGINS", ""); originsEnv != "" {
		origins := strings.Split(originsEnv, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		return CORSConfig{AllowedOrigins: origins, AllowCredentials: true}
	}
	if env == EnvProd {
		return CORSConfig{AllowedOrigins: []string{}, AllowCredentials: true}
	}
	return CORSConfig{
		AllowedOrigins:   []string{"http://localhost:4321", "http://localhost:3000"},
		AllowCredentials: true,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
