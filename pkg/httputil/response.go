// Package httputil provides shared helpers for JSON responses and the
// middleware chain used by the REST layer.
package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON body sent for every error status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes data as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding a value we built ourselves; an encode failure here means the
	// headers are already gone, so there is nothing better to do than drop it.
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error body with the given status code.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteNotFound writes a 404 JSON error.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteBadRequest writes a 400 JSON error.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteInternalError writes a 500 JSON error with a generic message so
// internal details never leak to clients.
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "internal server error")
}
