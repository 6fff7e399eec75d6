package respond

import (
	"io"
	"net/http"
)

// WritePassthrough copies an upstream response's status and body to w
// verbatim (spec.md §4.7: "Anthropic messages passthrough: emit
// upstream body verbatim"). Callers must not have written to w yet.
func WritePassthrough(w http.ResponseWriter, upstream *http.Response) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(upstream.StatusCode)
	_, err := io.Copy(w, upstream.Body)
	return err
}

// WriteError writes the OpenAI-shaped {error:{...}} envelope
// (spec.md §7), for use only when headers have not yet been sent.
func WriteError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = writeJSON(w, ErrorResponse{Error: ErrorBody{Message: message, Type: errType}})
}
