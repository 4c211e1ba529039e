package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/postfeed/internal/domain"
)

const internalErrorMessage = "An unexpected error occurred. Please try again."

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorDTO{Message: message, Status: status})
}

// writeDomainError maps err to a status by its kind and writes the error
// body. Unclassified errors are logged and reported with a generic message.
func writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) || derr.Kind == domain.KindInternal {
		slog.ErrorContext(r.Context(), op, "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	status := derr.Kind.HTTPStatus()
	body := ErrorDTO{Message: derr.Message, Status: status}
	for _, f := range derr.Fields {
		body.Data = append(body.Data, FieldErrorDTO{Field: f.Field, Message: f.Message})
	}
	writeJSON(w, status, body)
}

// readJSON decodes the request body into the given destination.
func readJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
