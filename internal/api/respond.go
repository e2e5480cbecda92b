package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/tlc-community/cu1-survey/internal/metrics"
	"github.com/tlc-community/cu1-survey/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("api: encoding response body")
	}
}

// writeError maps service errors onto HTTP statuses. Anything that is not a
// ServiceError is treated as a storage/internal failure and kept vague for
// the caller.
func writeError(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		writeJSON(w, statusFor(se.Code), map[string]any{"error": se.Message})
		return
	}
	log.Error().Err(err).Msg("api: internal error")
	metrics.StorageErrors.Inc()
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid:
		return http.StatusBadRequest
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorTooManyRequests:
		return http.StatusTooManyRequests
	case services.ErrorStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
