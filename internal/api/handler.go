// Package api provides HTTP handlers for the kinematics API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorResponse is the envelope for every failed request.
type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to encode response", "error", err)
	}
}

// Error writes a {ok:false, error} response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorResponse{OK: false, Error: message})
}
