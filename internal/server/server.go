// Package server exposes the CV index over HTTP: paginated listing and
// hybrid search.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/musdechocolate/hrai/internal/storage"
)

// DocumentStore lists stored resumes and reports store health.
type DocumentStore interface {
	Scroll(ctx context.Context, limit int, offset string) ([]*storage.Resume, string, error)
	Health(ctx context.Context) error
}

// QueryEngine answers hybrid queries.
type QueryEngine interface {
	Query(ctx context.Context, text string, filters map[string]any, limit int) ([]*storage.ScoredResume, error)
}

// Config holds server configuration.
type Config struct {
	Port         int
	CORSAllowAll bool
}

// Server is the HTTP shell around the query engine and store.
type Server struct {
	cfg        Config
	store      DocumentStore
	engine     QueryEngine
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server over the given store and query engine.
func New(cfg Config, store DocumentStore, engine QueryEngine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		store:  store,
		engine: engine,
		logger: logger,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter configures the chi router with middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.cfg.CORSAllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/documents", s.handleDocuments)
		r.Post("/search", s.handleSearch)
	})

	return r
}

// Router returns the configured router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port. Blocks until the
// server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("hrai server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
