package translate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGemini_SystemInstructionAndRoleMapping(t *testing.T) {
	temp := 0.5
	req := &NormalizedRequest{
		MaxTokens:   200,
		Temperature: &temp,
		Messages: []Message{
			{Role: "system", Content: "be terse"},
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		},
	}

	got := ToGemini(context.Background(), req, nil)

	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "be terse", got.SystemInstruction.Parts[0].Text)

	require.Len(t, got.Contents, 2)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "model", got.Contents[1].Role)

	require.NotNil(t, got.GenerationConfig)
	assert.Equal(t, 200, got.GenerationConfig.MaxOutputTokens)
	assert.Equal(t, &temp, got.GenerationConfig.Temperature)
}

func TestToGemini_InlinesDataURIImageWithoutFetching(t *testing.T) {
	fetchCalled := false
	fetch := func(ctx context.Context, url string) ([]byte, string, error) {
		fetchCalled = true
		return nil, "", nil
	}

	req := &NormalizedRequest{
		Messages: []Message{
			{
				Role: "user",
				Parts: []ContentPart{
					{Type: "image_url", ImageURL: "data:image/png;base64,QUJD"},
				},
			},
		},
	}

	got := ToGemini(context.Background(), req, fetch)

	assert.False(t, fetchCalled)
	require.Len(t, got.Contents[0].Parts, 1)
	require.NotNil(t, got.Contents[0].Parts[0].InlineData)
	assert.Equal(t, "image/png", got.Contents[0].Parts[0].InlineData.MimeType)
	assert.Equal(t, "QUJD", got.Contents[0].Parts[0].InlineData.Data)
}

func TestToGemini_FetchesRemoteImageAndInlines(t *testing.T) {
	fetch := func(ctx context.Context, url string) ([]byte, string, error) {
		assert.Equal(t, "https://example.com/cat.png", url)
		return []byte("abc"), "image/png", nil
	}

	req := &NormalizedRequest{
		Messages: []Message{
			{Role: "user", Parts: []ContentPart{{Type: "image_url", ImageURL: "https://example.com/cat.png"}}},
		},
	}

	got := ToGemini(context.Background(), req, fetch)

	part := got.Contents[0].Parts[0]
	require.NotNil(t, part.InlineData)
	assert.Equal(t, "image/png", part.InlineData.MimeType)
	assert.Equal(t, "YWJj", part.InlineData.Data) // base64("abc")
}

func TestToGemini_FetchFailureDegradesToPlaceholderText(t *testing.T) {
	fetch := func(ctx context.Context, url string) ([]byte, string, error) {
		return nil, "", errors.New("boom")
	}

	req := &NormalizedRequest{
		Messages: []Message{
			{Role: "user", Parts: []ContentPart{{Type: "image_url", ImageURL: "https://example.com/broken.png"}}},
		},
	}

	got := ToGemini(context.Background(), req, fetch)

	part := got.Contents[0].Parts[0]
	assert.Nil(t, part.InlineData)
	assert.Equal(t, "[Image could not be loaded]", part.Text)
}

func TestUsesGlobalEndpoint(t *testing.T) {
	assert.True(t, UsesGlobalEndpoint([]string{"global"}))
	assert.False(t, UsesGlobalEndpoint([]string{"us-east5"}))
	assert.False(t, UsesGlobalEndpoint([]string{"global", "us-east5"}))
	assert.False(t, UsesGlobalEndpoint(nil))
}
