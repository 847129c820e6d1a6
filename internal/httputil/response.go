package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Success bool   `json:"success"`
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

// RespondSuccess sends {success: true, message} with the given status code.
func RespondSuccess(w http.ResponseWriter, message string, statusCode int) {
	RespondJSON(w, Response{Success: true, Message: message}, statusCode)
}

// RespondError sends {success: false, message} with the given status code.
// Every failure path goes through here so success is never true on an error.
func RespondError(w http.ResponseWriter, message string, statusCode int) {
	RespondJSON(w, Response{Success: false, Message: message}, statusCode)
}

// RespondInternalError reports an unexpected failure with the raw error text.
func RespondInternalError(w http.ResponseWriter, err error) {
	RespondError(w, err.Error(), http.StatusInternalServerError)
}
