package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jmorrell/taskdeck/database"
)

// writeJSON is a helper function to format and send JSON responses.
func writeJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshalling response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// writeMessage sends the standard {"message": ...} body.
func writeMessage(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"message": message})
}

// respondStoreError translates a store error into an HTTP response.
// Expected conditions get an actionable message; anything else is
// logged in full and returned as a generic 500.
func respondStoreError(w http.ResponseWriter, err error, notFoundMsg, internalMsg string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeMessage(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, database.ErrInvalidStatus):
		writeMessage(w, http.StatusBadRequest, "Task status must be one of: to do, in progress, done")
	default:
		log.Printf("%s: %v", internalMsg, err)
		writeMessage(w, http.StatusInternalServerError, internalMsg)
	}
}
