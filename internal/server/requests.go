package server

import (
	"encoding/json"
	"fmt"

	"github.com/howard-nolan/vertexproxy/internal/translate"
)

// openAIChatRequest is the wire shape of POST /v1/chat/completions.
// Content is decoded twice: first as a plain string, and if that
// fails, as the multi-modal content-part array OpenAI also allows.
type openAIChatRequest struct {
	Model       string             `json:"model"`
	Messages    []openAIMessage    `json:"messages"`
	Stream      bool               `json:"stream"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature"`
	Tools       []translate.Tool   `json:"tools"`
	ToolChoice  json.RawMessage    `json:"tool_choice"`
	Stop        openAIStopSequence `json:"stop"`
}

// openAIStopSequence accepts OpenAI's "stop" field in either its bare
// string or string-array shape.
type openAIStopSequence []string

func (s *openAIStopSequence) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*s = []string{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

type openAIMessage struct {
	Role       string               `json:"role"`
	Content    json.RawMessage      `json:"content"`
	ToolCallID string               `json:"tool_call_id,omitempty"`
	ToolCalls  []translate.ToolCall `json:"tool_calls,omitempty"`
}

// toMessage decodes Content, which is either a bare string or an
// OpenAI multi-modal content-part array.
func (m openAIMessage) toMessage() (translate.Message, error) {
	out := translate.Message{Role: m.Role, ToolCallID: m.ToolCallID, ToolCalls: m.ToolCalls}

	var asString string
	if err := json.Unmarshal(m.Content, &asString); err == nil {
		out.Content = asString
		return out, nil
	}

	var asParts []rawContentPart
	if err := json.Unmarshal(m.Content, &asParts); err != nil {
		return out, fmt.Errorf("decoding message content: %w", err)
	}
	for _, p := range asParts {
		part := translate.ContentPart{Type: p.Type, Text: p.Text}
		if p.ImageURL != nil {
			part.ImageURL = p.ImageURL.URL
		}
		out.Parts = append(out.Parts, part)
	}
	return out, nil
}

type rawContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

// toToolChoice decodes OpenAI's tool_choice union into
// translate.ToolChoice.
func toToolChoice(raw json.RawMessage) (*translate.ToolChoice, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var mode string
	if err := json.Unmarshal(raw, &mode); err == nil {
		return &translate.ToolChoice{Mode: mode}, nil
	}
	var structured struct {
		Type     string `json:"type"`
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	}
	if err := json.Unmarshal(raw, &structured); err != nil {
		return nil, fmt.Errorf("decoding tool_choice: %w", err)
	}
	return &translate.ToolChoice{Function: structured.Function.Name}, nil
}

// toNormalized converts the decoded OpenAI chat body into a
// translate.NormalizedRequest.
func (req openAIChatRequest) toNormalized(requestID string) (*translate.NormalizedRequest, error) {
	messages := make([]translate.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msg, err := m.toMessage()
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	toolChoice, err := toToolChoice(req.ToolChoice)
	if err != nil {
		return nil, err
	}

	return &translate.NormalizedRequest{
		ModelInput:  req.Model,
		Messages:    messages,
		Stream:      req.Stream,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Tools:       req.Tools,
		ToolChoice:  toolChoice,
		Stop:        []string(req.Stop),
		RequestID:   requestID,
	}, nil
}

// openAICompletionRequest is the wire shape of the legacy
// POST /v1/completions route. "prompt" is lifted into a single
// user message (spec.md §4.4, "prompt-to-messages lifting").
type openAICompletionRequest struct {
	Model       string             `json:"model"`
	Prompt      string             `json:"prompt"`
	Stream      bool               `json:"stream"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature"`
	Stop        openAIStopSequence `json:"stop"`
}

func (req openAICompletionRequest) toNormalized(requestID string) *translate.NormalizedRequest {
	return &translate.NormalizedRequest{
		ModelInput:  req.Model,
		Messages:    []translate.Message{{Role: "user", Content: req.Prompt}},
		Stream:      req.Stream,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stop:        []string(req.Stop),
		RequestID:   requestID,
	}
}

// imagenGenerationRequest is the wire shape of
// POST /v1/images/generations.
type imagenGenerationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

func (req imagenGenerationRequest) toNormalized(requestID string) *translate.NormalizedRequest {
	return &translate.NormalizedRequest{
		ModelInput:  req.Model,
		N:           req.N,
		Size:        req.Size,
		ImagePrompt: req.Prompt,
		RequestID:   requestID,
	}
}

// anthropicMessagesModel extracts just enough of an Anthropic
// /v1/messages body to drive model resolution and streaming
// detection; the rest is forwarded verbatim by
// translate.ToAnthropicPassthrough.
type anthropicMessagesModel struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

func toPassthroughNormalized(raw json.RawMessage, requestID string) (*translate.NormalizedRequest, error) {
	var meta anthropicMessagesModel
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decoding messages request: %w", err)
	}
	if meta.Model == "" {
		return nil, fmt.Errorf("missing required field: model")
	}
	return &translate.NormalizedRequest{
		ModelInput:     meta.Model,
		Stream:         meta.Stream,
		RawPassthrough: raw,
		RequestID:      requestID,
	}, nil
}
