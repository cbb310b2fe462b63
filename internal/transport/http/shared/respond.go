// Package shared holds the response helpers used by every handler.
package shared

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "gatehouse/pkg/domain-errors"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// WriteJSON writes v with the given status. Encoding failures are logged
// by the caller's middleware via the 500 it produces.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(mustMarshal(v))
}

// WriteError maps a classified error to its HTTP status. Unclassified
// errors become opaque 500s; the cause goes to the log, not the client.
func WriteError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "request failed", "error", err, "code", string(code))
	} else {
		logger.WarnContext(ctx, "request rejected", "error", err, "code", string(code))
	}
	WriteJSON(w, status, ErrorBody{
		Error:       string(code),
		Description: dErrors.MessageOf(err),
	})
}

func mustMarshal(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"error":"internal","error_description":"encoding failure"}`)
	}
	return raw
}
