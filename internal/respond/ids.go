package respond

import "github.com/google/uuid"

// NewCompletionID mints a stable per-response id in OpenAI's
// "chatcmpl-<opaque>" shape. Callers allocate exactly one of these per
// response (spec.md §4.7: "all chunks in one response share the same
// completion_id") — streaming responses allocate it once up front in
// internal/sse.Run; non-streaming responses allocate it
// here, at response-assembly time.
func NewCompletionID() string {
	return "chatcmpl-" + uuid.NewString()
}
