// Package server exposes the support agent over HTTP: an SSE chat
// stream, a non-streaming chat endpoint, knowledge base search, and
// thread inspection routes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/shophub/supportflow/internal/agent"
	"github.com/shophub/supportflow/internal/kb"
	"github.com/shophub/supportflow/internal/memory"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
	// HistoryLimit caps how many prior messages feed each turn.
	// Non-positive means the default of 10.
	HistoryLimit int
}

// Server wires the agent and its stores into an HTTP surface.
type Server struct {
	cfg        Config
	agent      *agent.Agent
	memory     *memory.Store
	retriever  *kb.Retriever
	kbStore    *kb.Store
	log        zerolog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all dependencies.
func New(cfg Config, ag *agent.Agent, mem *memory.Store, retriever *kb.Retriever, kbStore *kb.Store, log zerolog.Logger) *Server {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	s := &Server{
		cfg:       cfg,
		agent:     ag,
		memory:    mem,
		retriever: retriever,
		kbStore:   kbStore,
		log:       log,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/api/chat/stream", s.handleChatStream)
	r.Post("/api/chat", s.handleChat)
	r.Get("/api/kb/search", s.handleKBSearch)
	r.Get("/api/kb/stats", s.handleKBStats)
	r.Get("/ws/chat", s.handleWebSocket)

	memory.RegisterRoutes(r, s.memory)

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// SSE responses stay open for the duration of a turn, so no
		// write timeout here.
		IdleTimeout: 120 * time.Second,
	}

	s.log.Info().Str("addr", addr).Msg("supportflow server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
