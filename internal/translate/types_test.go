package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage_Text(t *testing.T) {
	plain := Message{Content: "hello"}
	assert.Equal(t, "hello", plain.Text())

	multiModal := Message{Parts: []ContentPart{
		{Type: "text", Text: "a"},
		{Type: "image_url", ImageURL: "data:image/png;base64,x"},
		{Type: "text", Text: "b"},
	}}
	assert.Equal(t, "ab", multiModal.Text())

	empty := Message{}
	assert.Equal(t, "", empty.Text())
}

func TestExtractSystem(t *testing.T) {
	msgs := []Message{
		{Role: "system", Content: "one"},
		{Role: "user", Content: "hi"},
		{Role: "system", Content: "two"},
		{Role: "assistant", Content: "hello"},
	}

	system, rest := ExtractSystem(msgs)

	assert.Equal(t, "one\n\ntwo", system)
	assert.Len(t, rest, 2)
	assert.Equal(t, "user", rest[0].Role)
	assert.Equal(t, "assistant", rest[1].Role)
}

func TestExtractSystem_NoSystemMessages(t *testing.T) {
	msgs := []Message{{Role: "user", Content: "hi"}}
	system, rest := ExtractSystem(msgs)
	assert.Equal(t, "", system)
	assert.Equal(t, msgs, rest)
}

func TestExtractSystem_MultiModalSystemMessage(t *testing.T) {
	msgs := []Message{
		{Role: "system", Parts: []ContentPart{{Type: "text", Text: "be terse"}}},
		{Role: "user", Content: "hi"},
	}
	system, _ := ExtractSystem(msgs)
	assert.Equal(t, "be terse", system)
}
