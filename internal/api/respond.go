package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"stealthcompany.com/clinic/internal/dal"
	"stealthcompany.com/clinic/internal/metrics"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func statusFor(kind dal.Kind) int {
	switch kind {
	case dal.KindNotFound:
		return http.StatusNotFound
	case dal.KindValidation:
		return http.StatusBadRequest
	case dal.KindConflict:
		return http.StatusConflict
	case dal.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and an {"error": msg} body. Internal
// failures are logged and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := dal.KindOf(err)
	status := statusFor(kind)
	msg := err.Error()

	if kind == dal.KindInternal {
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		msg = "internal server error"
	} else {
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("kind", kind.String()).
			Str("error", msg).
			Msg("Request rejected")
	}

	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}

// decodeJSON reads the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return dal.Validation("Invalid JSON format")
	}
	return nil
}

// observe counts the outcome of an entity operation.
func observe(entity, operation string, err error) {
	result := "success"
	if err != nil {
		result = dal.KindOf(err).String()
	}
	metrics.RecordEntityOperation(entity, operation, result)
}
