package respond

import (
	"encoding/json"
	"net/http"
)

// writeJSON marshals v to w without setting headers or status — callers
// own the response line.
func writeJSON(w http.ResponseWriter, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// WriteJSON writes v as a 200 JSON response, setting Content-Type.
func WriteJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	return writeJSON(w, v)
}
