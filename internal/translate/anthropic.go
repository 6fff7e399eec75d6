package translate

import (
	"encoding/json"
	"strings"
)

// AnthropicVertexVersion pins the Anthropic-on-Vertex wire version
// (spec.md §4.4). Anthropic versions its API with a header/body field
// instead of a URL path segment, same convention the teacher's
// anthropicAPIVersion constant documents for api.anthropic.com direct.
const AnthropicVertexVersion = "vertex-2023-10-16"

// AnthropicRequest is the body posted to
// .../publishers/anthropic/models/{id}:{rawPredict|streamRawPredict}.
type AnthropicRequest struct {
	AnthropicVersion string               `json:"anthropic_version"`
	MaxTokens        int                  `json:"max_tokens"`
	System           string               `json:"system,omitempty"`
	Messages         []AnthropicMessage   `json:"messages"`
	Stream           bool                 `json:"stream,omitempty"`
	Temperature      *float64             `json:"temperature,omitempty"`
	Tools            []AnthropicTool      `json:"tools,omitempty"`
	ToolChoice       *AnthropicToolChoice `json:"tool_choice,omitempty"`
	StopSequences    []string             `json:"stop_sequences,omitempty"`
}

// AnthropicMessage is one turn; Content is a list of content blocks
// (spec.md §4.4 — unlike the teacher's flat string, Vertex's Anthropic
// surface needs block-shaped content to carry tool_use/tool_result).
type AnthropicMessage struct {
	Role    string             `json:"role"`
	Content []AnthropicContent `json:"content"`
}

// AnthropicContent is a tagged union of the block shapes this proxy
// emits: text, image, tool_use, tool_result. Only the fields relevant
// to Type are populated; the rest stay at their zero value and are
// omitted from JSON.
type AnthropicContent struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// image
	Source *AnthropicImageSource `json:"source,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`

	// tool_result content is frequently plain text in our translation;
	// reuse Text above for that case.
}

// AnthropicImageSource is an inlined base64 image, spec.md §4.4.
type AnthropicImageSource struct {
	Type      string `json:"type"` // "base64"
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// AnthropicTool is an OpenAI function tool translated to Anthropic's
// custom-tool shape (spec.md §4.4).
type AnthropicTool struct {
	Type        string          `json:"type"` // "custom"
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

// AnthropicToolChoice mirrors Anthropic's {"type":"auto"|"none"|"tool","name":...}.
type AnthropicToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

const defaultMaxTokens = 1024

// ToAnthropic translates a NormalizedRequest (from either the OpenAI
// chat route or the OpenAI legacy completions route, once its prompt
// has been lifted into a single user message) into the Anthropic
// request body Vertex expects. Per spec.md §4.4.
func ToAnthropic(req *NormalizedRequest) *AnthropicRequest {
	system, rest := ExtractSystem(req.Messages)
	// A caller-supplied req.System wins when present; otherwise use what
	// we just extracted. None of the HTTP routes set req.System today.
	if req.System != "" {
		system = req.System
	}

	ar := &AnthropicRequest{
		AnthropicVersion: AnthropicVertexVersion,
		System:           system,
		Temperature:      req.Temperature,
		StopSequences:    req.Stop,
	}

	for _, m := range rest {
		ar.Messages = append(ar.Messages, translateMessage(m))
	}

	if req.MaxTokens > 0 {
		ar.MaxTokens = req.MaxTokens
	} else {
		ar.MaxTokens = defaultMaxTokens
	}

	for _, t := range req.Tools {
		ar.Tools = append(ar.Tools, AnthropicTool{
			Type:        "custom",
			Name:        t.Function.Name,
			Description: t.Function.Description,
			InputSchema: t.Function.Parameters,
		})
	}

	if req.ToolChoice != nil {
		switch {
		case req.ToolChoice.Function != "":
			ar.ToolChoice = &AnthropicToolChoice{Type: "tool", Name: req.ToolChoice.Function}
		case req.ToolChoice.Mode == "auto" || req.ToolChoice.Mode == "none":
			ar.ToolChoice = &AnthropicToolChoice{Type: req.ToolChoice.Mode}
		}
	}

	return ar
}

// translateMessage converts one normalized message into an Anthropic
// message, handling the three special role shapes spec.md §4.4 names:
// tool results, assistant tool calls, and plain text/image content.
func translateMessage(m Message) AnthropicMessage {
	if m.Role == "tool" {
		return AnthropicMessage{
			Role: "user",
			Content: []AnthropicContent{{
				Type:      "tool_result",
				ToolUseID: m.ToolCallID,
				Text:      m.Text(),
			}},
		}
	}

	if m.Role == "assistant" && len(m.ToolCalls) > 0 {
		var blocks []AnthropicContent
		if text := m.Text(); text != "" {
			blocks = append(blocks, AnthropicContent{Type: "text", Text: text})
		}
		for _, tc := range m.ToolCalls {
			blocks = append(blocks, AnthropicContent{
				Type:  "tool_use",
				ID:    tc.ID,
				Name:  tc.Function.Name,
				Input: parseArguments(tc.Function.Arguments),
			})
		}
		return AnthropicMessage{Role: "assistant", Content: blocks}
	}

	if m.Parts != nil {
		return AnthropicMessage{Role: m.Role, Content: translateParts(m.Parts)}
	}

	return AnthropicMessage{
		Role:    m.Role,
		Content: []AnthropicContent{{Type: "text", Text: m.Content}},
	}
}

// translateParts rewrites an OpenAI multi-modal content array into
// Anthropic content blocks: text passes through, and image_url blocks
// become inlined base64 images when the URL is a data: URI (spec.md
// §4.4). A non-data image URL has no Anthropic equivalent the
// Anthropic-on-Vertex surface accepts inline, so it is dropped rather
// than attempted — unlike the Gemini translator, which fetches remote
// images, Anthropic's content blocks require base64 up front.
func translateParts(parts []ContentPart) []AnthropicContent {
	var blocks []AnthropicContent
	for _, p := range parts {
		switch p.Type {
		case "text":
			blocks = append(blocks, AnthropicContent{Type: "text", Text: p.Text})
		case "image_url":
			if source, ok := InlineDataURIImage(p.ImageURL); ok {
				blocks = append(blocks, AnthropicContent{Type: "image", Source: &source})
			}
		}
	}
	return blocks
}

// parseArguments turns a stringified JSON-object (OpenAI's
// tool_calls[].function.arguments wire shape) into a json.RawMessage
// Anthropic's tool_use.input expects as a structured object. Malformed
// arguments degrade to an empty object rather than failing translation
// — translators never throw, per spec.md §7's propagation policy.
func parseArguments(raw string) json.RawMessage {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return json.RawMessage("{}")
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return json.RawMessage("{}")
	}
	return json.RawMessage(raw)
}

// InlineDataURIImage recognizes a data: URI and splits it into an
// Anthropic base64 image source, or returns ok=false for anything
// else. Nothing fetches remote URLs for the Anthropic path:
// translateParts drops an image block whose URL is not a data: URI.
func InlineDataURIImage(url string) (source AnthropicImageSource, ok bool) {
	const prefix = "data:"
	if !strings.HasPrefix(url, prefix) {
		return AnthropicImageSource{}, false
	}
	rest := strings.TrimPrefix(url, prefix)
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return AnthropicImageSource{}, false
	}
	meta, data := rest[:comma], rest[comma+1:]
	semicolon := strings.IndexByte(meta, ';')
	if semicolon < 0 || !strings.Contains(meta, "base64") {
		return AnthropicImageSource{}, false
	}
	mediaType := meta[:semicolon]
	return AnthropicImageSource{Type: "base64", MediaType: mediaType, Data: data}, true
}

// ToAnthropicPassthrough forwards an inbound Anthropic /v1/messages
// request with the minimal rewriting spec.md §4.4 describes: required
// anthropic_version, max_tokens, messages, and the optional fields.
// Unlike ToAnthropic, content blocks are passed through unchanged
// rather than reconstructed, since the caller already speaks
// Anthropic's block format.
func ToAnthropicPassthrough(raw json.RawMessage) (json.RawMessage, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	if _, ok := body["anthropic_version"]; !ok {
		body["anthropic_version"] = AnthropicVertexVersion
	}
	if _, ok := body["max_tokens"]; !ok {
		body["max_tokens"] = defaultMaxTokens
	}
	return json.Marshal(body)
}
