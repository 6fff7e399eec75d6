package respond

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// geminiResponse is the upstream Gemini generateContent response
// shape, trimmed to the fields this proxy consumes.
type geminiResponse struct {
	Candidates    []geminiCandidate   `json:"candidates"`
	UsageMetadata geminiUsageMetadata `json:"usageMetadata"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// FromGeminiChat translates an upstream Gemini response body into the
// OpenAI chat-completion shape.
func FromGeminiChat(raw []byte, canonicalModel string) (*ChatCompletionResponse, error) {
	var upstream geminiResponse
	if err := json.Unmarshal(raw, &upstream); err != nil {
		return nil, fmt.Errorf("decoding gemini response: %w", err)
	}

	var text, finish string
	if len(upstream.Candidates) > 0 {
		c := upstream.Candidates[0]
		for _, p := range c.Content.Parts {
			text += p.Text
		}
		finish = geminiFinishReason(c.FinishReason)
	}

	return &ChatCompletionResponse{
		ID:      NewCompletionID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   canonicalModel,
		Choices: []ChatChoice{{
			Index:        0,
			Message:      ChatMessage{Role: "assistant", Content: text},
			FinishReason: finish,
		}},
		Usage: Usage{
			PromptTokens:     upstream.UsageMetadata.PromptTokenCount,
			CompletionTokens: upstream.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      upstream.UsageMetadata.TotalTokenCount,
		},
	}, nil
}

// geminiFinishReason normalizes Gemini's upper-case finish reasons
// ("STOP", "MAX_TOKENS", ...) to OpenAI's lower-case convention,
// defaulting to "stop" when upstream omits it.
func geminiFinishReason(reason string) string {
	if reason == "" {
		return "stop"
	}
	return strings.ToLower(reason)
}
