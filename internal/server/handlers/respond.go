// internal/server/handlers/respond.go

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"pulse/internal/domain/analytics"
	"pulse/internal/logging"
)

// maxBodyBytes bounds request bodies read by decodeJSON
const maxBodyBytes = 1 << 20

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := map[string]string{"error": message}

	if err != nil && code >= 500 {
		logger := logging.Component("http")
		logger.Error().Err(err).Int("code", code).Msg(message)
	} else if err != nil {
		response["detail"] = err.Error()
	}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}

// respondWithServiceError maps domain errors to HTTP status codes
func respondWithServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, analytics.ErrInvalidInput),
		errors.Is(err, analytics.ErrEmptyTrainingData),
		errors.Is(err, analytics.ErrUnsupportedModelType):
		respondWithError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, analytics.ErrNotFound):
		respondWithError(w, http.StatusNotFound, message, err)
	case errors.Is(err, analytics.ErrNoActiveModel):
		respondWithError(w, http.StatusConflict, message, err)
	default:
		respondWithError(w, http.StatusInternalServerError, message, err)
	}
}

// decodeJSON reads a bounded JSON request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("error decoding request body: %w", err)
	}
	return nil
}

// parsePeriod reads the period query parameter, defaulting to weekly
func parsePeriod(r *http.Request) (analytics.TimePeriod, error) {
	period := analytics.TimePeriod(strings.ToLower(r.URL.Query().Get("period")))
	if period == "" {
		return analytics.PeriodWeekly, nil
	}
	if !period.Valid() {
		return "", fmt.Errorf("unknown period %q: %w", period, analytics.ErrInvalidInput)
	}
	return period, nil
}

// window returns [now - period, now)
func window(now time.Time, period analytics.TimePeriod) (time.Time, time.Time) {
	until := now.UTC()
	return until.Add(-period.Duration()), until
}

// parseTime reads an RFC 3339 query parameter; missing values yield def
func parseTime(r *http.Request, key string, def time.Time) (time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, analytics.ErrInvalidInput)
	}
	return t, nil
}
