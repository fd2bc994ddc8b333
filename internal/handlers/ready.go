package handlers

import (
	"encoding/json"
	"net/http"

	"tscat/internal/i18n"
	"tscat/internal/logger"
	"tscat/middleware"
)

// RegistrySource returns the registry currently served, nil before the
// first successful load.
type RegistrySource interface {
	Registry() *i18n.Registry
}

// HealthCheck reports that the process is up.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadinessCheck answers 200 once catalogs are loaded, 503 before.
func ReadinessCheck(source RegistrySource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())
		if source == nil || source.Registry() == nil {
			logger.HTTPError(r.Method, r.URL.Path, http.StatusServiceUnavailable, nil).
				Str("request_id", requestID).
				Msg("readiness check: no catalogs loaded")
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
			return
		}
		logger.HTTPEvent(r.Method, r.URL.Path, http.StatusOK, 0).
			Str("request_id", requestID).
			Msg("readiness check")
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.HTTPError(r.Method, r.URL.Path, status, err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error, msg string) {
	logger.HTTPError(r.Method, r.URL.Path, status, err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Msg(msg)
	text := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		text = err.Error()
	}
	writeJSON(w, r, status, errorResponse{Error: text})
}
