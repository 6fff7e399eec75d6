// Package server wires the HTTP surface: chi routing, request-id
// assignment, JSON body parsing, and the streaming/non-streaming
// dispatch branch (spec.md §4.8).
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/howard-nolan/vertexproxy/internal/config"
	"github.com/howard-nolan/vertexproxy/internal/dispatch"
	"github.com/howard-nolan/vertexproxy/internal/observability"
)

// Server holds the HTTP router and every dependency the handlers need.
type Server struct {
	router     chi.Router
	cfg        *config.Config
	dispatcher *dispatch.Dispatcher
	recorder   *observability.Recorder
	startedAt  time.Time
}

// New creates a Server, wires up routes and middleware, and returns it
// ready to use as an http.Handler.
func New(cfg *config.Config, dispatcher *dispatch.Dispatcher, recorder *observability.Recorder) *Server {
	s := &Server{cfg: cfg, dispatcher: dispatcher, recorder: recorder, startedAt: time.Now()}
	s.routes()
	return s
}

// routes builds the chi router with all middleware and route
// definitions, matching the teacher's server.routes() layout.
func (s *Server) routes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.recorder.Handler().ServeHTTP)
	r.Get("/v1/models", s.handleModels)
	r.Post("/v1/chat/completions", s.handleChatCompletions)
	r.Post("/v1/completions", s.handleCompletions)
	r.Post("/v1/messages", s.handleMessages)
	r.Post("/messages", s.handleMessages)
	r.Post("/v1/images/generations", s.handleImages)

	s.router = r
}

// ServeHTTP makes Server satisfy the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
