// Package dispatch implements the per-request orchestration: model
// resolution, auto-truncation, region planning, the failover loop, and
// the recursive one-shot fallback-chain retry (spec.md §4.5, §4.6).
package dispatch

import (
	"fmt"

	"github.com/howard-nolan/vertexproxy/internal/catalog"
)

// operation is the upstream verb segment in the Vertex URL, chosen by
// provider and streaming flag (spec.md §4.6).
type operation string

const (
	opRawPredict       operation = "rawPredict"
	opStreamRawPredict operation = "streamRawPredict"
	opGenerateContent  operation = "generateContent"
	opPredict          operation = "predict"
)

// publisher is the Vertex publisher path segment for a provider.
// Imagen models are hosted under the "google" publisher alongside
// Gemini; only Anthropic-on-Vertex uses its own publisher namespace.
func publisher(p catalog.Provider) string {
	switch p {
	case catalog.ProviderGoogle, catalog.ProviderImagen:
		return "google"
	default:
		return "anthropic"
	}
}

// resolveOperation picks the upstream verb for a provider + streaming
// combination, per spec.md §4.6's URL template.
func resolveOperation(p catalog.Provider, stream bool) operation {
	switch p {
	case catalog.ProviderAnthropic:
		if stream {
			return opStreamRawPredict
		}
		return opRawPredict
	case catalog.ProviderGoogle:
		return opGenerateContent
	case catalog.ProviderImagen:
		return opPredict
	default:
		return opRawPredict
	}
}

// buildURL constructs the Vertex AI endpoint URL for one failover
// attempt: https://{region}-aiplatform.googleapis.com/v1/projects/{project}/locations/{region}/publishers/{anthropic|google}/models/{id}:{op}
//
// A region of "global" (spec.md §4.4: "models whose sole region is
// 'global', use the cross-region endpoint") gets the unprefixed
// cross-region host instead of a regional one.
func buildURL(region, project string, p catalog.Provider, canonicalModel string, stream bool) string {
	op := resolveOperation(p, stream)
	host := "aiplatform.googleapis.com"
	if region != "global" {
		host = fmt.Sprintf("%s-aiplatform.googleapis.com", region)
	}
	url := fmt.Sprintf(
		"https://%s/v1/projects/%s/locations/%s/publishers/%s/models/%s:%s",
		host, project, region, publisher(p), canonicalModel, op,
	)
	// Gemini has no distinct streaming operation in the URL template
	// (spec.md §4.6 lists only rawPredict|streamRawPredict|generateContent|predict);
	// streaming is instead requested via Vertex's alt=sse query parameter
	// on the same generateContent endpoint.
	if p == catalog.ProviderGoogle && stream {
		url += "?alt=sse"
	}
	return url
}
