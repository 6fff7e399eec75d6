package respond

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/howard-nolan/vertexproxy/internal/translate"
)

// anthropicResponse is the upstream Anthropic-on-Vertex non-streaming
// response shape, trimmed to the fields this proxy consumes.
type anthropicResponse struct {
	ID         string                  `json:"id"`
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
}

type anthropicContentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// anthropicStopReasons is the explicit mapping spec.md §4.7 calls for;
// anything else passes through verbatim per the Design Notes' open
// question on unmapped stop_reason values.
var anthropicStopReasons = map[string]string{
	"end_turn": "stop",
	"tool_use": "tool_calls",
}

func mapStopReason(reason string) string {
	if mapped, ok := anthropicStopReasons[reason]; ok {
		return mapped
	}
	return reason
}

// FromAnthropicChat translates an upstream Anthropic response body
// into the OpenAI chat-completion shape (spec.md §4.7).
func FromAnthropicChat(raw []byte, canonicalModel string) (*ChatCompletionResponse, error) {
	var upstream anthropicResponse
	if err := json.Unmarshal(raw, &upstream); err != nil {
		return nil, fmt.Errorf("decoding anthropic response: %w", err)
	}

	var text string
	var toolCalls []translate.ToolCall
	for _, block := range upstream.Content {
		switch block.Type {
		case "text":
			text += block.Text
		case "tool_use":
			toolCalls = append(toolCalls, translate.ToolCall{
				ID:   block.ID,
				Type: "function",
				Function: translate.ToolCallBody{
					Name:      block.Name,
					Arguments: string(block.Input),
				},
			})
		}
	}

	return &ChatCompletionResponse{
		ID:      NewCompletionID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   canonicalModel,
		Choices: []ChatChoice{{
			Index:        0,
			Message:      ChatMessage{Role: "assistant", Content: text, ToolCalls: toolCalls},
			FinishReason: mapStopReason(upstream.StopReason),
		}},
		Usage: Usage{
			PromptTokens:     upstream.Usage.InputTokens,
			CompletionTokens: upstream.Usage.OutputTokens,
			TotalTokens:      upstream.Usage.InputTokens + upstream.Usage.OutputTokens,
		},
	}, nil
}

// FromAnthropicCompletion translates the same upstream body into the
// OpenAI legacy completions shape (spec.md §4.7: "same, but shape is
// {text, logprobs:null, finish_reason}").
func FromAnthropicCompletion(raw []byte, canonicalModel string) (*CompletionResponse, error) {
	var upstream anthropicResponse
	if err := json.Unmarshal(raw, &upstream); err != nil {
		return nil, fmt.Errorf("decoding anthropic response: %w", err)
	}

	var text string
	for _, block := range upstream.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return &CompletionResponse{
		ID:      NewCompletionID(),
		Object:  "text_completion",
		Created: time.Now().Unix(),
		Model:   canonicalModel,
		Choices: []CompletionChoice{{
			Text:         text,
			Index:        0,
			Logprobs:     nil,
			FinishReason: mapStopReason(upstream.StopReason),
		}},
		Usage: Usage{
			PromptTokens:     upstream.Usage.InputTokens,
			CompletionTokens: upstream.Usage.OutputTokens,
			TotalTokens:      upstream.Usage.InputTokens + upstream.Usage.OutputTokens,
		},
	}, nil
}
