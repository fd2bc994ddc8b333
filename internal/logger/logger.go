package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the application-wide logger type, aliased to zerolog.Logger.
// This allows other packages to depend only on tscat/internal/logger instead of importing zerolog directly.
type Logger = zerolog.Logger

// Event is an alias for zerolog.Event to allow building log entries without importing zerolog.
type Event = zerolog.Event

const consoleTimeFormat = "2006-01-02 15:04:05"

// Options select where and how logs are written.
type Options struct {
	Level string
	// Output is one of stdout, stderr, file or both.
	Output string
	// Format is console or json.
	Format   string
	FilePath string
}

// Init configures the global logger. Misconfigured outputs fall back to a
// console writer on stdout and are reported once the logger is ready.
func Init(opts Options) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	outputMode := strings.ToLower(strings.TrimSpace(opts.Output))
	if outputMode == "" {
		outputMode = "stdout"
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	filePath := strings.TrimSpace(opts.FilePath)

	writers := make([]io.Writer, 0, 2)
	warnings := make([]string, 0, 2)

	if outputMode == "stdout" || outputMode == "both" {
		writers = append(writers, formatWriter(os.Stdout, format))
	}
	if outputMode == "stderr" {
		writers = append(writers, formatWriter(os.Stderr, format))
	}
	if outputMode == "file" || outputMode == "both" {
		switch file, err := openLogFile(filePath); {
		case filePath == "":
			warnings = append(warnings, "log output requires a file but no log file path is set; disabling file logging")
		case err != nil:
			warnings = append(warnings, fmt.Sprintf("failed to open log file %q, disabling file logging: %v", filePath, err))
		default:
			writers = append(writers, formatWriter(file, format))
		}
	}
	if len(writers) == 0 {
		writers = append(writers, formatWriter(os.Stdout, "console"))
		warnings = append(warnings, "no valid log output configured, falling back to stdout console")
		outputMode = "stdout"
	}

	var output io.Writer = writers[0]
	if len(writers) > 1 {
		output = zerolog.MultiLevelWriter(writers...)
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
		if opts.Level != "" {
			warnings = append(warnings, fmt.Sprintf("invalid log level %q, defaulting to info", opts.Level))
		}
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(output).Level(lvl)

	for _, msg := range warnings {
		log.Warn().Msg(msg)
	}
	log.Info().
		Str("level", lvl.String()).
		Str("output_mode", outputMode).
		Str("format", format).
		Str("log_file_path", filePath).
		Msg("Logger initialized")
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func formatWriter(w io.Writer, format string) io.Writer {
	if format == "json" {
		return w
	}
	return zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
}

// Get returns a pointer to the configured logger instance
func Get() *zerolog.Logger {
	return &log.Logger
}

// SetOutput changes the destination for log output.
// This is useful for redirecting logs to a buffer during testing.
func SetOutput(w io.Writer) {
	log.Logger = log.Output(w)
}

// HTTPEvent logs HTTP request events with standardized fields.
func HTTPEvent(method, path string, status int, durationMs float64) *zerolog.Event {
	return log.Info().
		Str("event_category", "http").
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Float64("duration_ms", durationMs)
}

// HTTPError logs HTTP error events.
func HTTPError(method, path string, status int, err error) *zerolog.Event {
	return log.Error().
		Str("event_category", "http").
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Err(err)
}

// CatalogEvent logs catalog loading and reloading.
func CatalogEvent(domain, locale, file string) *zerolog.Event {
	return log.Info().
		Str("event_category", "catalog").
		Str("domain", domain).
		Str("locale", locale).
		Str("file", file)
}

// CatalogError logs a failed catalog load.
func CatalogError(domain, dir string, err error) *zerolog.Event {
	return log.Error().
		Str("event_category", "catalog").
		Str("domain", domain).
		Str("dir", dir).
		Err(err)
}

// PanicEvent logs panic recovery events.
func PanicEvent(err interface{}, stack string) *zerolog.Event {
	return log.Error().
		Str("event_category", "panic").
		Interface("error", err).
		Str("stack", stack)
}
