package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/howard-nolan/vertexproxy/internal/auth"
	"github.com/howard-nolan/vertexproxy/internal/catalog"
	"github.com/howard-nolan/vertexproxy/internal/config"
	"github.com/howard-nolan/vertexproxy/internal/region"
	"github.com/howard-nolan/vertexproxy/internal/translate"
)

// maxFallbackHops bounds the recursive fallback-chain retry to exactly
// once per inbound request (spec.md §4.5 step 6).
const maxFallbackHops = 1

// ValidationError is a malformed-input failure caught before any
// upstream call is attempted (spec.md §7).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Result is the outcome of a successful dispatch: the winning
// upstream response (headers received, body not yet read) plus the
// resolution that produced it, for the Response Handler to consult
// when building the outbound reply.
type Result struct {
	Response   *http.Response
	Resolution catalog.Resolution
	Attempts   []RegionAttempt
}

// Dispatcher implements spec.md §4.5: resolve → truncate → plan →
// translate → fail over, with one recursive fallback-chain retry on
// exhaustion.
type Dispatcher struct {
	cfg      *config.Config
	planner  *region.Planner
	bridge   auth.Bridge
	client   *http.Client
	fetchImg translate.ImageFetcher // nil uses translate.DefaultImageFetcher
}

// New builds a Dispatcher. client is the http.Client used for every
// upstream POST; fetchImg may be nil.
func New(cfg *config.Config, planner *region.Planner, bridge auth.Bridge, client *http.Client, fetchImg translate.ImageFetcher) *Dispatcher {
	return &Dispatcher{cfg: cfg, planner: planner, bridge: bridge, client: client, fetchImg: fetchImg}
}

// Dispatch runs the full per-request flow for req, returning the
// winning upstream response or a structured error
// (ValidationError | *auth.AuthError | *TerminalError | *ExhaustedError | ErrNoRegions).
func (d *Dispatcher) Dispatch(ctx context.Context, req *translate.NormalizedRequest) (*Result, error) {
	return d.dispatchOnce(ctx, req, 0)
}

func (d *Dispatcher) dispatchOnce(ctx context.Context, req *translate.NormalizedRequest, fallbackHops int) (*Result, error) {
	aliases := mergedAliases(d.cfg)
	resolution := catalog.Resolve(aliases, req.ModelInput)
	catalog.WarnUnresolved(req.ModelInput, resolution)

	req.ResolvedModel = resolution.Canonical
	req.Provider = string(resolution.Provider)

	if resolution.Provider == catalog.ProviderImagen && req.ImagePrompt == "" {
		return nil, &ValidationError{Message: "prompt is required for image generation"}
	}

	if d.cfg.AutoTruncate && resolution.Spec != nil {
		req.Messages = AutoTruncate(req.Messages, resolution.Spec.ContextWindow, d.cfg.ReserveOutputTokens)
	}

	var specRegions []string
	if resolution.Spec != nil {
		specRegions = resolution.Spec.Regions
	}
	regions := d.planner.Plan(resolution.Canonical, specRegions)
	if len(regions) == 0 {
		return nil, ErrNoRegions
	}

	body, err := d.buildBody(ctx, resolution.Provider, req)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	attempt := func(ctx context.Context, attemptRegion string) (*http.Response, error) {
		token, err := d.bridge.Token(ctx)
		if err != nil {
			return nil, err
		}

		url := buildURL(attemptRegion, d.cfg.ProjectID, resolution.Provider, resolution.Canonical, req.Stream)

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+token)

		return d.client.Do(httpReq)
	}

	result, err := RunFailover(ctx, regions, attempt)
	if err == nil {
		return &Result{Response: result.Response, Resolution: resolution, Attempts: result.Attempts}, nil
	}

	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) && fallbackHops < maxFallbackHops {
		if chain, ok := d.cfg.FallbackChains[resolution.Canonical]; ok && len(chain) > 0 {
			req.ModelInput = chain[0]
			return d.dispatchOnce(ctx, req, fallbackHops+1)
		}
	}

	return nil, err
}

// buildBody translates req into the upstream JSON body for provider.
func (d *Dispatcher) buildBody(ctx context.Context, p catalog.Provider, req *translate.NormalizedRequest) ([]byte, error) {
	switch p {
	case catalog.ProviderAnthropic:
		if req.RawPassthrough != nil {
			return translate.ToAnthropicPassthrough(req.RawPassthrough)
		}
		ar := translate.ToAnthropic(req)
		ar.Stream = req.Stream
		return json.Marshal(ar)
	case catalog.ProviderGoogle:
		gr := translate.ToGemini(ctx, req, d.fetchImg)
		return json.Marshal(gr)
	case catalog.ProviderImagen:
		ir := translate.ToImagen(req)
		return json.Marshal(ir)
	default:
		return nil, fmt.Errorf("dispatch: unknown provider %q", p)
	}
}

// mergedAliases layers the config's model_aliases over
// catalog.DefaultAliases, config entries winning on conflict.
func mergedAliases(cfg *config.Config) map[string]string {
	merged := make(map[string]string, len(catalog.DefaultAliases)+len(cfg.ModelAliases))
	for k, v := range catalog.DefaultAliases {
		merged[k] = v
	}
	for k, v := range cfg.ModelAliases {
		merged[k] = v
	}
	return merged
}
