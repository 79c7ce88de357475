package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mailcanvas/mailcanvas/internal/domain"
	"github.com/mailcanvas/mailcanvas/pkg/logger"
)

// maxBodyBytes bounds request bodies: the largest document plus room for
// JSON escaping and the other fields
const maxBodyBytes = 2*domain.MaxTemplateContentBytes + 64<<10

// WriteJSONError writes a JSON error response with the given message and status code.
// It sets the Content-Type header to application/json and automatically formats
// the response as {"error": "message"}.
func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// writeServiceError maps domain errors to status codes. Anything that is
// not a known domain error is logged and reported as "Failed to <action>".
func writeServiceError(w http.ResponseWriter, log logger.Logger, err error, action string) {
	var validationErr domain.ValidationError
	var notFound *domain.ErrTemplateNotFound
	var unauthorized *domain.ErrUnauthorized
	var limited *domain.ErrRateLimited

	switch {
	case errors.As(err, &validationErr):
		WriteJSONError(w, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &notFound):
		WriteJSONError(w, "Template not found", http.StatusNotFound)
	case errors.As(err, &unauthorized):
		WriteJSONError(w, "Unauthorized", http.StatusUnauthorized)
	case errors.As(err, &limited):
		w.Header().Set("Retry-After", strconv.Itoa(limited.RetryAfter))
		WriteJSONError(w, limited.Error(), http.StatusTooManyRequests)
	default:
		log.WithField("error", err.Error()).Error(fmt.Sprintf("Failed to %s", action))
		WriteJSONError(w, fmt.Sprintf("Failed to %s", action), http.StatusInternalServerError)
	}
}
