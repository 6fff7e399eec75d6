package translate

import (
	"context"
	"encoding/base64"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// GeminiRequest is the body posted to .../publishers/google/models/{id}:generateContent.
type GeminiRequest struct {
	Contents          []GeminiContent         `json:"contents"`
	SystemInstruction *GeminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GeminiGenerationConfig `json:"generationConfig,omitempty"`
}

// GeminiContent is one message; Parts can mix text and inline image data.
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart is one content-array element. Exactly one of Text or
// InlineData is populated.
type GeminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *GeminiInlineData `json:"inlineData,omitempty"`
}

// GeminiInlineData is a base64-inlined image part.
type GeminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// GeminiGenerationConfig holds generation parameters.
type GeminiGenerationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
}

// imageFetchTimeout bounds how long we'll wait on a remote image URL
// before falling back to the placeholder text part (spec.md §4.4: "fetch
// failure substitutes a single text part ... never fails the overall
// request").
const imageFetchTimeout = 5 * time.Second

// ImageFetcher fetches a remote URL and returns its bytes and MIME
// type. Abstracted so tests can inject a fake without touching the
// network; ToGemini's default uses http.DefaultClient.
type ImageFetcher func(ctx context.Context, url string) (data []byte, mimeType string, err error)

// DefaultImageFetcher fetches url with a bounded timeout and reports
// the response's Content-Type as the MIME type.
func DefaultImageFetcher(ctx context.Context, url string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, imageFetchTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &imageFetchError{status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/png"
	}
	return data, mimeType, nil
}

type imageFetchError struct{ status int }

func (e *imageFetchError) Error() string {
	return http.StatusText(e.status)
}

// ToGemini translates a NormalizedRequest into Gemini's generateContent
// body (spec.md §4.4). Remote image URLs are fetched and inlined;
// fetch failures degrade to a placeholder text part and a logged
// warning rather than failing the request.
func ToGemini(ctx context.Context, req *NormalizedRequest, fetch ImageFetcher) *GeminiRequest {
	if fetch == nil {
		fetch = DefaultImageFetcher
	}

	gr := &GeminiRequest{}

	system, rest := ExtractSystem(req.Messages)
	if req.System != "" {
		system = req.System
	}
	if system != "" {
		gr.SystemInstruction = &GeminiContent{Parts: []GeminiPart{{Text: system}}}
	}

	for _, m := range rest {
		role := m.Role
		if role == "assistant" {
			role = "model"
		}
		gr.Contents = append(gr.Contents, GeminiContent{
			Role:  role,
			Parts: toGeminiParts(ctx, m, fetch),
		})
	}

	if req.MaxTokens > 0 || req.Temperature != nil {
		gr.GenerationConfig = &GeminiGenerationConfig{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		}
	}

	return gr
}

func toGeminiParts(ctx context.Context, m Message, fetch ImageFetcher) []GeminiPart {
	if m.Parts == nil {
		return []GeminiPart{{Text: m.Content}}
	}

	var parts []GeminiPart
	for _, p := range m.Parts {
		switch p.Type {
		case "text":
			parts = append(parts, GeminiPart{Text: p.Text})
		case "image_url":
			parts = append(parts, geminiImagePart(ctx, p.ImageURL, fetch))
		}
	}
	return parts
}

// geminiImagePart inlines a data: URI directly, or fetches a remote
// URL and inlines the result; on any failure it substitutes the
// placeholder text part spec.md §4.4 specifies.
func geminiImagePart(ctx context.Context, url string, fetch ImageFetcher) GeminiPart {
	if strings.HasPrefix(url, "data:") {
		rest := strings.TrimPrefix(url, "data:")
		comma := strings.IndexByte(rest, ',')
		if comma < 0 {
			return placeholderImagePart()
		}
		meta, data := rest[:comma], rest[comma+1:]
		semicolon := strings.IndexByte(meta, ';')
		if semicolon < 0 {
			return placeholderImagePart()
		}
		return GeminiPart{InlineData: &GeminiInlineData{MimeType: meta[:semicolon], Data: data}}
	}

	data, mimeType, err := fetch(ctx, url)
	if err != nil {
		log.Printf("warning: failed to fetch image %q for gemini request: %v", url, err)
		return placeholderImagePart()
	}

	return GeminiPart{InlineData: &GeminiInlineData{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}
}

func placeholderImagePart() GeminiPart {
	return GeminiPart{Text: "[Image could not be loaded]"}
}

// UsesGlobalEndpoint reports whether a model's region list is exactly
// ["global"], i.e. the model is served only from the cross-region
// endpoint. The dispatcher does not call it: buildURL picks the host
// from each attempted region on its own.
func UsesGlobalEndpoint(regions []string) bool {
	return len(regions) == 1 && regions[0] == "global"
}
