package respond

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAnthropicChat_TextResponse(t *testing.T) {
	raw := []byte(`{
		"id": "msg_123",
		"content": [{"type":"text","text":"hello there"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`)

	got, err := FromAnthropicChat(raw, "claude-sonnet-4-5@20250929")
	require.NoError(t, err)

	assert.Equal(t, "claude-sonnet-4-5@20250929", got.Model)
	assert.Equal(t, "hello there", got.Choices[0].Message.Content)
	assert.Equal(t, "stop", got.Choices[0].FinishReason)
	assert.Equal(t, 15, got.Usage.TotalTokens)
	assert.NotEmpty(t, got.ID)
}

func TestFromAnthropicChat_ToolUse(t *testing.T) {
	raw := []byte(`{
		"id": "msg_124",
		"content": [
			{"type":"text","text":"let me check"},
			{"type":"tool_use","id":"toolu_1","name":"get_weather","input":{"city":"nyc"}}
		],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 20, "output_tokens": 8}
	}`)

	got, err := FromAnthropicChat(raw, "claude-sonnet-4-5@20250929")
	require.NoError(t, err)

	assert.Equal(t, "tool_calls", got.Choices[0].FinishReason)
	require.Len(t, got.Choices[0].Message.ToolCalls, 1)
	assert.Equal(t, "get_weather", got.Choices[0].Message.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"city":"nyc"}`, got.Choices[0].Message.ToolCalls[0].Function.Arguments)
}

func TestFromAnthropicChat_UnrecognizedStopReasonPassesThrough(t *testing.T) {
	raw := []byte(`{
		"id": "msg_125",
		"content": [{"type":"text","text":"x"}],
		"stop_reason": "max_tokens",
		"usage": {"input_tokens": 1, "output_tokens": 1}
	}`)

	got, err := FromAnthropicChat(raw, "m")
	require.NoError(t, err)
	assert.Equal(t, "max_tokens", got.Choices[0].FinishReason)
}

func TestFromAnthropicCompletion_Shape(t *testing.T) {
	raw := []byte(`{
		"id": "msg_126",
		"content": [{"type":"text","text":"completion text"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 3, "output_tokens": 2}
	}`)

	got, err := FromAnthropicCompletion(raw, "m")
	require.NoError(t, err)

	assert.Equal(t, "text_completion", got.Object)
	assert.Equal(t, "completion text", got.Choices[0].Text)
	assert.Nil(t, got.Choices[0].Logprobs)
	assert.Equal(t, "stop", got.Choices[0].FinishReason)
}
