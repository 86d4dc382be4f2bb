package utils

import (
	"encoding/json"
	"net/http"
)

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// Success wraps data in the {"success": true, ...} envelope the admin UI expects.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	RespondWithJSON(w, statusCode, map[string]any{"success": true, "data": data})
}

// Error wraps a failure in the {"success": false, "error": ...} envelope.
func Error(w http.ResponseWriter, statusCode int, msg string) {
	RespondWithJSON(w, statusCode, map[string]any{"success": false, "error": msg})
}

type M map[string]interface{}
