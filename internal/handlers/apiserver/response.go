package apiserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/joaoc-dev/blueledger-sub001/internal/apperr"
)

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSONResponse sends a JSON response with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Error encoding JSON response: %v", err)
		}
	}
}

// writeJSONError sends a JSON error body with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, statusCode, ErrorResponse{Error: message})
}

// writeServiceError maps the service error taxonomy onto HTTP status codes.
// Expected outcomes (not found, forbidden, conflict, self reference) pass
// through without logging; anything else is an application error.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apperr.ErrForbidden):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, apperr.ErrConflict):
		writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, apperr.ErrSelfReference):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("Internal error handling request: %v", err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
