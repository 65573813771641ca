package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errResponse is the uniform error body for REST failures. Coded errors
// from the tool layer are written directly instead, preserving their
// code and suggestions fields.
type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeJSON serializes v with the response status. Encoding failures are
// logged; by then the status line is already on the wire.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}
