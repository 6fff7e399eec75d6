package translate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAnthropic_ExtractsSystemAndDefaultsMaxTokens(t *testing.T) {
	req := &NormalizedRequest{
		Messages: []Message{
			{Role: "system", Content: "be terse"},
			{Role: "user", Content: "hi"},
		},
	}

	got := ToAnthropic(req)

	assert.Equal(t, AnthropicVertexVersion, got.AnthropicVersion)
	assert.Equal(t, "be terse", got.System)
	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "hi", got.Messages[0].Content[0].Text)
}

func TestToAnthropic_MultipleSystemMessagesJoined(t *testing.T) {
	req := &NormalizedRequest{
		Messages: []Message{
			{Role: "system", Content: "first"},
			{Role: "system", Content: "second"},
			{Role: "user", Content: "hi"},
		},
	}

	got := ToAnthropic(req)
	assert.Equal(t, "first\n\nsecond", got.System)
}

func TestToAnthropic_ToolCallRoundTrip(t *testing.T) {
	req := &NormalizedRequest{
		MaxTokens: 256,
		Messages: []Message{
			{Role: "user", Content: "what's the weather"},
			{
				Role:    "assistant",
				Content: "let me check",
				ToolCalls: []ToolCall{
					{ID: "call_1", Type: "function", Function: ToolCallBody{Name: "get_weather", Arguments: `{"city":"nyc"}`}},
				},
			},
			{Role: "tool", ToolCallID: "call_1", Content: `{"temp_f":72}`},
		},
		Tools: []Tool{
			{Type: "function", Function: ToolFunction{Name: "get_weather", Parameters: json.RawMessage(`{"type":"object"}`)}},
		},
	}

	got := ToAnthropic(req)

	require.Len(t, got.Messages, 3)

	assistantMsg := got.Messages[1]
	require.Len(t, assistantMsg.Content, 2)
	assert.Equal(t, "text", assistantMsg.Content[0].Type)
	assert.Equal(t, "tool_use", assistantMsg.Content[1].Type)
	assert.Equal(t, "get_weather", assistantMsg.Content[1].Name)
	assert.JSONEq(t, `{"city":"nyc"}`, string(assistantMsg.Content[1].Input))

	toolMsg := got.Messages[2]
	assert.Equal(t, "user", toolMsg.Role)
	assert.Equal(t, "tool_result", toolMsg.Content[0].Type)
	assert.Equal(t, "call_1", toolMsg.Content[0].ToolUseID)

	require.Len(t, got.Tools, 1)
	assert.Equal(t, "custom", got.Tools[0].Type)
	assert.Equal(t, "get_weather", got.Tools[0].Name)
}

func TestToAnthropic_MalformedToolArgumentsDegradeToEmptyObject(t *testing.T) {
	req := &NormalizedRequest{
		Messages: []Message{
			{
				Role: "assistant",
				ToolCalls: []ToolCall{
					{ID: "call_1", Function: ToolCallBody{Name: "f", Arguments: `not json`}},
				},
			},
		},
	}

	got := ToAnthropic(req)
	assert.JSONEq(t, "{}", string(got.Messages[0].Content[0].Input))
}

func TestToAnthropic_MultiModalPartsInlineDataURI(t *testing.T) {
	req := &NormalizedRequest{
		Messages: []Message{
			{
				Role: "user",
				Parts: []ContentPart{
					{Type: "text", Text: "look at this"},
					{Type: "image_url", ImageURL: "data:image/png;base64,QUJD"},
					{Type: "image_url", ImageURL: "https://example.com/cat.png"},
				},
			},
		},
	}

	got := ToAnthropic(req)

	blocks := got.Messages[0].Content
	require.Len(t, blocks, 2)
	assert.Equal(t, "text", blocks[0].Type)
	assert.Equal(t, "image", blocks[1].Type)
	assert.Equal(t, "image/png", blocks[1].Source.MediaType)
	assert.Equal(t, "QUJD", blocks[1].Source.Data)
}

func TestInlineDataURIImage(t *testing.T) {
	source, ok := InlineDataURIImage("data:image/jpeg;base64,Zm9v")
	require.True(t, ok)
	assert.Equal(t, "base64", source.Type)
	assert.Equal(t, "image/jpeg", source.MediaType)
	assert.Equal(t, "Zm9v", source.Data)

	_, ok = InlineDataURIImage("https://example.com/x.png")
	assert.False(t, ok)
}

func TestToAnthropicPassthrough_FillsDefaults(t *testing.T) {
	out, err := ToAnthropicPassthrough(json.RawMessage(`{"messages":[{"role":"user","content":"hi"}]}`))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(out, &body))
	assert.Equal(t, AnthropicVertexVersion, body["anthropic_version"])
	assert.Equal(t, float64(defaultMaxTokens), body["max_tokens"])
}

func TestToAnthropicPassthrough_PreservesExplicitValues(t *testing.T) {
	out, err := ToAnthropicPassthrough(json.RawMessage(`{"anthropic_version":"custom","max_tokens":42}`))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(out, &body))
	assert.Equal(t, "custom", body["anthropic_version"])
	assert.Equal(t, float64(42), body["max_tokens"])
}
