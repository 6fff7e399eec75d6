// Package respond translates upstream publisher JSON bodies back into
// the OpenAI/Anthropic/Imagen response shapes callers expect
// (spec.md §4.7, non-streaming half). The streaming half lives in
// internal/sse.
package respond

import "github.com/howard-nolan/vertexproxy/internal/translate"

// Usage mirrors OpenAI's token accounting block.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionResponse is the OpenAI /v1/chat/completions response shape.
type ChatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   Usage        `json:"usage"`
}

// ChatChoice is one completion candidate; there is always exactly one
// in this proxy's non-streaming path.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatMessage is the assistant turn returned to the caller.
type ChatMessage struct {
	Role      string              `json:"role"`
	Content   string              `json:"content"`
	ToolCalls []translate.ToolCall `json:"tool_calls,omitempty"`
}

// CompletionResponse is the OpenAI legacy /v1/completions response shape.
type CompletionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
	Usage   Usage              `json:"usage"`
}

// CompletionChoice is one legacy-completions candidate.
type CompletionChoice struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	Logprobs     any    `json:"logprobs"`
	FinishReason string `json:"finish_reason"`
}

// ImagesResponse is the OpenAI /v1/images/generations response shape.
type ImagesResponse struct {
	Created int64       `json:"created"`
	Data    []ImageData `json:"data"`
}

// ImageData is one generated image.
type ImageData struct {
	B64JSON       string `json:"b64_json"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// ErrorResponse is the OpenAI-shaped error envelope (spec.md §7).
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the message, type, and optional upstream code.
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// Error type constants, matching spec.md §7's taxonomy.
const (
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeProxyError     = "proxy_error"
)
