package dispatch

import (
	"testing"

	"github.com/howard-nolan/vertexproxy/internal/catalog"
	"github.com/stretchr/testify/assert"
)

func TestBuildURL_AnthropicNonStreaming(t *testing.T) {
	url := buildURL("us-east5", "proj", catalog.ProviderAnthropic, "claude-sonnet-4-5@20250929", false)
	assert.Equal(t, "https://us-east5-aiplatform.googleapis.com/v1/projects/proj/locations/us-east5/publishers/anthropic/models/claude-sonnet-4-5@20250929:rawPredict", url)
}

func TestBuildURL_AnthropicStreaming(t *testing.T) {
	url := buildURL("us-east5", "proj", catalog.ProviderAnthropic, "claude-sonnet-4-5@20250929", true)
	assert.Contains(t, url, ":streamRawPredict")
}

func TestBuildURL_GlobalRegionUsesCrossRegionHost(t *testing.T) {
	url := buildURL("global", "proj", catalog.ProviderGoogle, "gemini-2.5-pro", false)
	assert.Contains(t, url, "https://aiplatform.googleapis.com/v1/projects/proj/locations/global/publishers/google/models/gemini-2.5-pro:generateContent")
}

func TestBuildURL_GeminiStreamingAddsAltSSE(t *testing.T) {
	url := buildURL("global", "proj", catalog.ProviderGoogle, "gemini-2.5-pro", true)
	assert.Contains(t, url, ":generateContent?alt=sse")
}

func TestBuildURL_Imagen(t *testing.T) {
	url := buildURL("us-central1", "proj", catalog.ProviderImagen, "imagen-4.0-generate-001", false)
	assert.Contains(t, url, ":predict")
	assert.Contains(t, url, "publishers/google")
}
