package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/howard-nolan/vertexproxy/internal/auth"
	"github.com/howard-nolan/vertexproxy/internal/catalog"
	"github.com/howard-nolan/vertexproxy/internal/dispatch"
	"github.com/howard-nolan/vertexproxy/internal/observability"
	"github.com/howard-nolan/vertexproxy/internal/respond"
	"github.com/howard-nolan/vertexproxy/internal/sse"
	"github.com/howard-nolan/vertexproxy/internal/translate"
)

// handleHealth responds with a basic liveness probe (spec.md §2 route table).
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, map[string]any{
		"status":       "ok",
		"uptime":       time.Since(s.startedAt).Seconds(),
		"requestCount": s.recorder.RequestCount(),
	})
}

// handleRoot serves the status document: name, version, project,
// uptime, request count, and a list of the main API endpoints. It
// carries no region summary.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, map[string]any{
		"name":         "vertexproxy",
		"version":      "1.0.0",
		"project":      s.cfg.ProjectID,
		"uptimeSec":    time.Since(s.startedAt).Seconds(),
		"requestCount": s.recorder.RequestCount(),
		"endpoints": []string{
			"/health", "/v1/models", "/v1/chat/completions",
			"/v1/completions", "/v1/messages", "/v1/images/generations",
		},
	})
}

// handleChatCompletions handles POST /v1/chat/completions: sync or SSE.
func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var body openAIChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.WriteError(w, http.StatusBadRequest, respond.ErrorTypeInvalidRequest, "invalid request body: "+err.Error())
		return
	}
	req, err := body.toNormalized(requestID(r))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, respond.ErrorTypeInvalidRequest, err.Error())
		return
	}

	s.dispatchAndRespond(w, r, req, func(raw []byte, provider catalog.Provider, canonical string) (any, error) {
		switch provider {
		case catalog.ProviderGoogle:
			return respond.FromGeminiChat(raw, canonical)
		default:
			return respond.FromAnthropicChat(raw, canonical)
		}
	})
}

// handleCompletions handles POST /v1/completions (legacy text completions).
func (s *Server) handleCompletions(w http.ResponseWriter, r *http.Request) {
	var body openAICompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.WriteError(w, http.StatusBadRequest, respond.ErrorTypeInvalidRequest, "invalid request body: "+err.Error())
		return
	}
	req := body.toNormalized(requestID(r))

	s.dispatchAndRespond(w, r, req, func(raw []byte, provider catalog.Provider, canonical string) (any, error) {
		return respond.FromAnthropicCompletion(raw, canonical)
	})
}

// handleMessages handles POST /v1/messages and /messages: Anthropic
// messages passthrough (spec.md §4.4).
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, respond.ErrorTypeInvalidRequest, "reading request body: "+err.Error())
		return
	}
	req, err := toPassthroughNormalized(raw, requestID(r))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, respond.ErrorTypeInvalidRequest, err.Error())
		return
	}

	if req.Stream {
		s.dispatchStream(w, r, req)
		return
	}

	result, err := s.dispatch(w, r, req)
	if err != nil {
		return
	}
	defer result.Response.Body.Close()

	if err := respond.WritePassthrough(w, result.Response); err != nil {
		log.Printf("request %s: writing passthrough response: %v", req.RequestID, err)
		return
	}
	s.recordSuccess(r, req, result, result.Response.StatusCode)
}

// handleImages handles POST /v1/images/generations (Imagen).
func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	var body imagenGenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.WriteError(w, http.StatusBadRequest, respond.ErrorTypeInvalidRequest, "invalid request body: "+err.Error())
		return
	}
	req := body.toNormalized(requestID(r))

	s.dispatchAndRespond(w, r, req, func(raw []byte, provider catalog.Provider, canonical string) (any, error) {
		return respond.FromImagen(raw, body.Prompt)
	})
}

// respondFunc translates an upstream raw body into the outbound JSON shape.
type respondFunc func(raw []byte, provider catalog.Provider, canonical string) (any, error)

// dispatchAndRespond runs the common dispatch → (stream | buffer+translate)
// flow shared by the chat/completions/images routes.
func (s *Server) dispatchAndRespond(w http.ResponseWriter, r *http.Request, req *translate.NormalizedRequest, translateFn respondFunc) {
	if req.Stream {
		s.dispatchStream(w, r, req)
		return
	}

	result, err := s.dispatch(w, r, req)
	if err != nil {
		return
	}
	defer result.Response.Body.Close()

	raw, err := io.ReadAll(result.Response.Body)
	if err != nil {
		respond.WriteError(w, http.StatusBadGateway, respond.ErrorTypeProxyError, "reading upstream body: "+err.Error())
		return
	}

	out, err := translateFn(raw, result.Resolution.Provider, result.Resolution.Canonical)
	if err != nil {
		respond.WriteError(w, http.StatusBadGateway, respond.ErrorTypeProxyError, "translating upstream response: "+err.Error())
		return
	}

	s.recordSuccess(r, req, result, http.StatusOK)
	respond.WriteJSON(w, out)
}

func (s *Server) dispatchStream(w http.ResponseWriter, r *http.Request, req *translate.NormalizedRequest) {
	result, err := s.dispatch(w, r, req)
	if err != nil {
		return
	}
	sse.Run(r.Context(), w, result.Response, result.Resolution.Provider, result.Resolution.Canonical, req.RequestID)
	s.recordSuccess(r, req, result, http.StatusOK)
}

// dispatch runs the Dispatcher and writes an error response (and
// records it) on failure; it returns a non-nil error in that case so
// the caller can stop.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *translate.NormalizedRequest) (*dispatch.Result, error) {
	start := time.Now()
	result, err := s.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		s.handleDispatchError(w, r, req, err, start)
		return nil, err
	}
	return result, nil
}

func (s *Server) handleDispatchError(w http.ResponseWriter, r *http.Request, req *translate.NormalizedRequest, err error, start time.Time) {
	var (
		validationErr *dispatch.ValidationError
		authErr       *auth.AuthError
		terminalErr   *dispatch.TerminalError
		exhaustedErr  *dispatch.ExhaustedError
	)

	status := http.StatusBadGateway
	errType := respond.ErrorTypeProxyError
	outcome := "error"

	switch {
	case errors.As(err, &validationErr):
		status, errType, outcome = http.StatusBadRequest, respond.ErrorTypeInvalidRequest, "validation_error"
	case errors.As(err, &authErr):
		status, outcome = http.StatusInternalServerError, "auth_error"
	case errors.As(err, &terminalErr):
		status, outcome = terminalErr.Status, "terminal_error"
		if status < 400 {
			status = http.StatusBadGateway
		}
	case errors.As(err, &exhaustedErr):
		status, outcome = http.StatusBadGateway, "exhausted"
	case errors.Is(err, dispatch.ErrNoRegions):
		status, outcome = http.StatusBadGateway, "no_regions"
	}

	log.Printf("request %s: dispatch error: %v", req.RequestID, err)
	s.recorder.Record(observability.RequestLogEntry{
		Time:       time.Now(),
		RequestID:  req.RequestID,
		Method:     r.Method,
		Path:       r.URL.Path,
		Model:      req.ModelInput,
		Provider:   req.Provider,
		Outcome:    outcome,
		Status:     status,
		DurationMS: time.Since(start).Milliseconds(),
	}, 0)

	respond.WriteError(w, status, errType, err.Error())
}

func (s *Server) recordSuccess(r *http.Request, req *translate.NormalizedRequest, result *dispatch.Result, status int) {
	var regions []string
	for _, a := range result.Attempts {
		regions = append(regions, a.Region)
	}
	// Duration runs from the start of the winning (last) attempt.
	var durationMS int64
	if n := len(result.Attempts); n > 0 {
		durationMS = time.Since(result.Attempts[n-1].Start).Milliseconds()
	}
	s.recorder.Record(observability.RequestLogEntry{
		Time:       time.Now(),
		RequestID:  req.RequestID,
		Method:     r.Method,
		Path:       r.URL.Path,
		Model:      result.Resolution.Canonical,
		Provider:   string(result.Resolution.Provider),
		Regions:    regions,
		Outcome:    "success",
		Status:     status,
		DurationMS: durationMS,
	}, len(result.Attempts)-1)
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
