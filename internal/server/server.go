// Package server exposes the sandbox client over HTTP: a small REST API for
// one-shot executions, run history endpoints, and a websocket for
// interactive sessions. The server adds recording and transport only; the
// execution semantics are exactly those of evalclient.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/michaelbrown/evalbox/internal/evalclient"
	"github.com/michaelbrown/evalbox/internal/storage"
)

// Server is the HTTP server for the evalbox API.
type Server struct {
	client *evalclient.Client
	store  storage.Store
	router chi.Router
	http   *http.Server
}

// New creates a new Server.
func New(client *evalclient.Client, store storage.Store) *Server {
	s := &Server{
		client: client,
		store:  store,
		router: chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", s.handleHealth)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(jsonContentType)

		r.Post("/execute", s.handleExecute)

		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Delete("/runs/{id}", s.handleDeleteRun)

		// WebSocket (no JSON content-type)
		r.Get("/ws", s.handleWebSocket)
	})
}

// jsonContentType sets Content-Type to application/json for API routes.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start begins listening on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	log.Printf("evalbox server starting on http://localhost%s (sandbox: %s)", addr, s.client.URL())
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
