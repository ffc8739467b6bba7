package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// MessageResponse is returned by endpoints that only acknowledge an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// RespondJSON sends a JSON response with the given status code.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// RespondMessage sends a MessageResponse with status 200.
func RespondMessage(w http.ResponseWriter, message string) {
	RespondJSON(w, MessageResponse{Message: message}, http.StatusOK)
}

// RespondError sends a JSON error response with a machine-readable code.
func RespondError(w http.ResponseWriter, message string, code string, statusCode int) {
	RespondJSON(w, ErrorResponse{Error: message, Code: code}, statusCode)
}

// RespondInternalError sends a 500. The error chain is only included when
// showDetails is set (non-production deployments).
func RespondInternalError(w http.ResponseWriter, message string, err error, showDetails bool) {
	resp := ErrorResponse{Error: message, Code: CodeInternalError}
	if showDetails && err != nil {
		resp.Detail = err.Error()
	}
	RespondJSON(w, resp, http.StatusInternalServerError)
}

// RespondNoContent sends an empty 204.
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
