package utils

import (
	"encoding/json"
	"net/http"

	"github.com/coolchillgy/pay/src/logger"
)

// SendJSONError is a helper function to send JSON formatted error responses.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if logger.L != nil { // Check if logger is initialized
		logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	}
	// Even if logger isn't ready, still try to send the error response
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// SendJSON writes a JSON response with the given status code.
func SendJSON(w http.ResponseWriter, payload interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger.L != nil {
		logger.L.Error("Error encoding JSON response", "error", err)
	}
}
