package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tscat/internal/logger"
)

func TestInit_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logLevel string
		wantLog  bool
	}{
		{"debug level logs debug", "debug", "debug", true},
		{"info level logs info", "info", "info", true},
		{"info level skips debug", "info", "debug", false},
		{"warn level skips info", "warn", "info", false},
		{"error level logs error", "error", "error", true},
		{"invalid level defaults to info", "invalid", "info", true},
		{"empty level defaults to info", "", "debug", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger.Init(logger.Options{Level: tt.level})
			logger.SetOutput(&buf)

			switch tt.logLevel {
			case "debug":
				logger.Get().Debug().Msg("test message")
			case "info":
				logger.Get().Info().Msg("test message")
			case "error":
				logger.Get().Error().Msg("test message")
			}
			assert.Equal(t, tt.wantLog, strings.Contains(buf.String(), "test message"), buf.String())
		})
	}
}

func TestHTTPEvent(t *testing.T) {
	logger.Init(logger.Options{Level: "debug"})
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	logger.HTTPEvent("GET", "/api/translate", 200, 150).Msg("")

	output := buf.String()
	assert.Contains(t, output, `"event_category":"http"`)
	assert.Contains(t, output, `"method":"GET"`)
	assert.Contains(t, output, `"path":"/api/translate"`)
	assert.Contains(t, output, `"status":200`)
	assert.Contains(t, output, `"duration_ms":150`)
}

func TestHTTPError(t *testing.T) {
	logger.Init(logger.Options{Level: "debug"})
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	logger.HTTPError("POST", "/api/reload", 500, errors.New("reload failed")).Msg("")

	output := buf.String()
	assert.Contains(t, output, `"status":500`)
	assert.Contains(t, output, `"error":"reload failed"`)
}

func TestCatalogEvents(t *testing.T) {
	logger.Init(logger.Options{Level: "info"})
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	logger.CatalogEvent("dde-file-manager", "fi", "dde-file-manager_fi.ts").Int("messages", 104).Msg("catalog loaded")
	logger.CatalogError("dde-file-manager", "/srv/translations", errors.New("malformed")).Msg("catalog load failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var loaded map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &loaded))
	assert.Equal(t, "catalog", loaded["event_category"])
	assert.Equal(t, "fi", loaded["locale"])
	assert.Equal(t, float64(104), loaded["messages"])

	var failed map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failed))
	assert.Equal(t, "error", failed["level"])
	assert.Equal(t, "/srv/translations", failed["dir"])
}

func TestPanicEvent(t *testing.T) {
	logger.Init(logger.Options{Level: "debug"})
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	logger.PanicEvent("panic message", "stack trace").Msg("")

	assert.Contains(t, buf.String(), `"error":"panic message"`)
	assert.Contains(t, buf.String(), `"stack":"stack trace"`)
}

func TestInit_FileOutput_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tscat.log")
	logger.Init(logger.Options{Level: "info", Output: "file", Format: "json", FilePath: path})
	logger.Get().Info().Msg("file output test")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "file output test")
}

func TestInit_FallbacksDoNotPanic(t *testing.T) {
	tests := []logger.Options{
		{Level: "info", Output: "file"},
		{Level: "info", Output: "nope", Format: "console"},
		{Level: "info", Output: "both", Format: "json", FilePath: t.TempDir()},
		{Level: "warn", Output: "stderr", Format: "console"},
	}
	for _, opts := range tests {
		assert.NotPanics(t, func() {
			logger.Init(opts)
			logger.Get().Info().Msg("fallback output")
		})
	}
}
