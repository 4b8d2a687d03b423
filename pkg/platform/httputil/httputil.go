// Package httputil holds small JSON helpers shared by handlers so transport
// concerns stay out of services.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "steeple/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to an HTTP response. Internal errors omit
// the description so storage details never reach a terminal.
func WriteError(w http.ResponseWriter, err error) {
	status := dErrors.ToHTTPStatus(err)
	body := map[string]string{
		"error": string(dErrors.CodeOf(err)),
	}
	if status < http.StatusInternalServerError {
		if msg := dErrors.Message(err); msg != "" {
			body["error_description"] = msg
		}
	}
	WriteJSON(w, status, body)
}

// Decode parses a JSON request body into T, rejecting unknown fields. A
// failure is logged and written as a bad request; the second return value
// tells the handler whether to continue.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "malformed request body", "error", err)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return req, false
	}
	return req, true
}
