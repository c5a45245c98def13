// Package api exposes the intake pipeline over HTTP: document upload,
// field export, and report preview behind a rate-limited chi router.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/formintake/formintake/internal/config"
	"github.com/formintake/formintake/internal/intake"
)

// Server is the HTTP API server for formintake.
type Server struct {
	router  chi.Router
	service *intake.Service
	store   *DocumentStore
	limiter *RateLimiter
	logger  *log.Logger
	cfg     *config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(service *intake.Service, cfg *config.Config, logger *log.Logger) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("intake service cannot be nil")
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = config.DefaultCacheTTL
	}
	cleanup := cfg.CacheCleanup
	if cleanup <= 0 {
		cleanup = ttl
	}

	s := &Server{
		service: service,
		store:   NewDocumentStore(ttl, cleanup),
		limiter: NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		logger:  logger,
		cfg:     cfg,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.logger))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Rate-limited endpoints.
	r.Group(func(r chi.Router) {
		r.Use(RateLimit(s.limiter))

		r.Post("/api/documents", s.handleUploadDocument)
		r.Get("/api/documents/{docID}/fields", s.handleDocumentFields)
		r.Get("/api/documents/{docID}/fields.csv", s.handleDocumentFieldsCSV)
		r.Get("/api/documents/{docID}/preview", s.handleDocumentPreview)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// Run serves the API until the context is canceled, then drains the
// listener gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.cfg.Address(),
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.Printf("HTTP API listening on %s", s.cfg.Address())

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	}
}
