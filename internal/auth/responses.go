// responses.go -- Package-wide HTTP response helpers.
//
// Messages may carry provider-supplied text (error_description, token endpoint
// bodies), so everything is JSON-encoded rather than concatenated.
package auth

import (
	"encoding/json"
	"net/http"
)

// messageBody is the JSON shape of every non-success response.
type messageBody struct {
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// InternalServerError logs the error and returns a generic 500 JSON response.
// Never exposes internal error details to prevent information leakage.
func InternalServerError(w http.ResponseWriter, r *http.Request, err error) {
	logError(r, "internal server error", "error", err)
	writeJSON(w, http.StatusInternalServerError, messageBody{Message: "internal server error"})
}

// BadRequest returns a 400 JSON response with the given message and failure reason.
func BadRequest(w http.ResponseWriter, r *http.Request, message, reason string) {
	writeJSON(w, http.StatusBadRequest, messageBody{Message: message, Reason: reason})
}

// Unauthorized returns a 401 JSON response with the given message and failure reason.
func Unauthorized(w http.ResponseWriter, r *http.Request, message, reason string) {
	writeJSON(w, http.StatusUnauthorized, messageBody{Message: message, Reason: reason})
}

// NotFound returns a 404 JSON response with the given message.
func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	writeJSON(w, http.StatusNotFound, messageBody{Message: message})
}

// BadGateway returns a 502 JSON response. Use when a provider call failed.
func BadGateway(w http.ResponseWriter, r *http.Request, message, reason string) {
	writeJSON(w, http.StatusBadGateway, messageBody{Message: message, Reason: reason})
}
