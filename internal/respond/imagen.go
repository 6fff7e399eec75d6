package respond

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/howard-nolan/vertexproxy/internal/translate"
)

// FromImagen translates an upstream Imagen predict response body into
// the OpenAI images.generations shape (spec.md §4.7:
// "data[i].b64_json = predictions[i].bytesBase64Encoded; echo prompt
// as revised_prompt").
func FromImagen(raw []byte, prompt string) (*ImagesResponse, error) {
	var upstream translate.ImagenResponse
	if err := json.Unmarshal(raw, &upstream); err != nil {
		return nil, fmt.Errorf("decoding imagen response: %w", err)
	}

	data := make([]ImageData, 0, len(upstream.Predictions))
	for _, p := range upstream.Predictions {
		data = append(data, ImageData{B64JSON: p.BytesBase64Encoded, RevisedPrompt: prompt})
	}

	return &ImagesResponse{Created: time.Now().Unix(), Data: data}, nil
}
