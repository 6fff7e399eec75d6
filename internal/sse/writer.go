package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNoFlusher is returned when the ResponseWriter doesn't implement
// http.Flusher — the runtime can't defeat intermediate buffering, so
// streaming would silently batch up and stall the client.
var ErrNoFlusher = errors.New("sse: response writer does not support flushing")

// Writer owns the framing and flow-control side of writing OpenAI SSE
// chunks to an http.ResponseWriter (spec.md §4.7). Each write flushes
// immediately, preferring the "await drain" backpressure strategy
// spec.md's Design Notes calls out over fire-and-forget buffering.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter wraps w, asserting it supports flushing.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrNoFlusher
	}
	return &Writer{w: w, flusher: flusher}, nil
}

// SetHeaders sets the SSE response headers (spec.md §4.7 step 1).
// Must be called before the first write.
func (wr *Writer) SetHeaders() {
	h := wr.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	wr.w.WriteHeader(http.StatusOK)
	wr.flusher.Flush()
}

// WriteChunk marshals c and writes it as one SSE data record, then
// flushes. No frame is ever partially written: the full "data: ...\n\n"
// record is built in memory before the single call to Write.
func (wr *Writer) WriteChunk(c Chunk) error {
	encoded, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling sse chunk: %w", err)
	}
	if _, err := fmt.Fprintf(wr.w, "data: %s\n\n", encoded); err != nil {
		return err
	}
	wr.flusher.Flush()
	return nil
}

// WriteDone writes the literal terminal sentinel (spec.md §4.7: "then
// literally write data: [DONE]\n\n").
func (wr *Writer) WriteDone() error {
	if _, err := fmt.Fprint(wr.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	wr.flusher.Flush()
	return nil
}
