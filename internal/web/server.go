// Package web serves the soundtrack JSON API and the live media socket.
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	// DefaultAddr is the default server address.
	DefaultAddr = "127.0.0.1:8080"

	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr string
	Deps Deps
}

// Server is the HTTP server for the API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Deps.Store == nil {
		return nil, errors.New("web: store is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	router := chi.NewRouter()

	s := &Server{
		router:   router,
		handlers: NewHandlers(cfg.Deps),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:        cfg.Addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /ws/latest holds its connection open. API routes
		// are bounded by middleware.Timeout instead.
		IdleTimeout: 60 * time.Second,
	}
	// Hijacked socket connections are not tracked by Shutdown.
	s.server.RegisterOnShutdown(s.handlers.closeSockets)

	return s, nil
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/status", h.Status)
		r.Post("/refresh", h.Refresh)

		r.Get("/media", h.Media)
		r.Get("/biometric", h.Biometric)
		r.Get("/biometric/series", h.BiometricSeries)
		r.Get("/biometric/states", h.BiometricStates)

		r.Get("/moods/{mood}/colors", h.MoodColors)
		r.Get("/search", h.Search)
		r.Get("/recommendations", h.Recommendations)
		r.Get("/songs/{id}", h.Song)
		r.Get("/soundtrack", h.Soundtrack)

		r.Post("/questionnaire", h.Questionnaire)

		r.Get("/videos", h.VideoHistory)
		r.Post("/videos", h.StartVideo)
		r.Get("/videos/progress", h.VideoProgress)
		r.Post("/videos/reset", h.ResetVideo)

		r.Get("/latest", h.Latest)
	})

	s.router.Get("/ws/latest", h.LatestSocket)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting server at http://%s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and shuts it down gracefully when ctx is done.
// Callers tie ctx to interrupt signals.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Println("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}
