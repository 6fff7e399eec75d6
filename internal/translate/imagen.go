package translate

import (
	"strconv"
	"strings"
)

// ImagenRequest is the body posted to
// .../publishers/google/models/{id}:predict for image generation.
type ImagenRequest struct {
	Instances  []ImagenInstance  `json:"instances"`
	Parameters ImagenParameters `json:"parameters"`
}

// ImagenInstance carries the text prompt.
type ImagenInstance struct {
	Prompt string `json:"prompt"`
}

// ImagenParameters controls sample count and shape (spec.md §4.4).
type ImagenParameters struct {
	SampleCount   int    `json:"sampleCount"`
	AspectRatio   string `json:"aspectRatio,omitempty"`
	SafetySetting string `json:"safetySetting,omitempty"`
}

const (
	imagenMaxSamples     = 4
	imagenDefaultSamples = 1
	imagenDefaultAspect  = "1:1"
	imagenSafetySetting  = "block_medium_and_above"
)

// aspectRatioFor derives Imagen's named aspect ratio from an OpenAI
// images.generations "WxH" size string (spec.md §4.4): parse the two
// integers and compare them directly — W>H is "16:9", H>W is "9:16",
// otherwise "1:1". Anything unparsable falls back to the square
// default rather than failing the request.
func aspectRatioFor(size string) string {
	w, h, ok := parseWxH(size)
	if !ok {
		return imagenDefaultAspect
	}
	switch {
	case w > h:
		return "16:9"
	case h > w:
		return "9:16"
	default:
		return "1:1"
	}
}

func parseWxH(size string) (w, h int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(size), "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	h, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return w, h, true
}

// ToImagen translates a NormalizedRequest built from an OpenAI
// images.generations call into the Imagen predict body. N is clamped
// to [1, 4] (spec.md §4.4: "sampleCount: min(n,4)"); Size is mapped to
// an aspect ratio, defaulting to square when unset or unrecognized.
func ToImagen(req *NormalizedRequest) *ImagenRequest {
	n := req.N
	if n <= 0 {
		n = imagenDefaultSamples
	}
	if n > imagenMaxSamples {
		n = imagenMaxSamples
	}

	aspect := aspectRatioFor(req.Size)

	return &ImagenRequest{
		Instances: []ImagenInstance{{Prompt: req.ImagePrompt}},
		Parameters: ImagenParameters{
			SampleCount:   n,
			AspectRatio:   aspect,
			SafetySetting: imagenSafetySetting,
		},
	}
}

// ImagenResponse is the body Vertex returns from an Imagen predict
// call: one base64 image per prediction slot.
type ImagenResponse struct {
	Predictions []ImagenPrediction `json:"predictions"`
}

// ImagenPrediction is one generated image.
type ImagenPrediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}
