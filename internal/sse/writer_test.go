package sse

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noFlushWriter struct{ http.ResponseWriter }

func TestNewWriter_RejectsNonFlusher(t *testing.T) {
	_, err := NewWriter(noFlushWriter{httptest.NewRecorder()})
	assert.ErrorIs(t, err, ErrNoFlusher)
}

func TestWriter_SetHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	require.NoError(t, err)

	w.SetHeaders()

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rec.Header().Get("Connection"))
	assert.True(t, rec.Flushed)
}

func TestWriter_WriteChunkAndDone(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	require.NoError(t, err)

	require.NoError(t, w.WriteChunk(Chunk{ID: "x", Object: "chat.completion.chunk"}))
	require.NoError(t, w.WriteDone())

	assert.Contains(t, rec.Body.String(), `"id":"x"`)
	assert.Contains(t, rec.Body.String(), "data: [DONE]\n\n")
}
