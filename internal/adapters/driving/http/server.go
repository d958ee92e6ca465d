package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	// Registers the API description served at /swagger/doc.json
	_ "github.com/custodia-labs/sercha-assist/docs"
	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping calls f(ctx)
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	version    string
	maxUpload  int64
	logger     *slog.Logger

	// Services
	chatService   driving.ChatService
	ingestService driving.IngestService
	searchService driving.SearchService
	docService    driving.DocumentService
	aiService     driving.AIStatusService

	auth *AuthMiddleware

	// Readiness checks by dependency name (postgres, redis, vector index)
	checks map[string]Pinger
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	Version     string
	AuthEnabled bool
	// MaxUploadBytes bounds a multipart ingestion request
	MaxUploadBytes int64
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		MaxUploadBytes: 32 << 20,
	}
}

// Services groups the driving ports the server exposes
type Services struct {
	Chat      driving.ChatService
	Ingest    driving.IngestService
	Search    driving.SearchService
	Documents driving.DocumentService
	Auth      driving.AuthService     // Required when auth is enabled
	AI        driving.AIStatusService // Optional
}

// NewServer creates a new HTTP server. checks are pinged by /ready; nil
// entries are skipped.
func NewServer(cfg Config, svc Services, checks map[string]Pinger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}

	s := &Server{
		router:        http.NewServeMux(),
		version:       cfg.Version,
		maxUpload:     cfg.MaxUploadBytes,
		logger:        logger,
		chatService:   svc.Chat,
		ingestService: svc.Ingest,
		searchService: svc.Search,
		docService:    svc.Documents,
		aiService:     svc.AI,
		auth:          NewAuthMiddleware(svc.Auth, cfg.AuthEnabled),
		checks:        checks,
	}

	s.setupRoutes()
	s.handler = NewLoggingMiddleware(logger).Handler(
		NewRecoveryMiddleware(logger).Handler(s.router))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // Covers the turn budget of a chat request
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)

	// Chat endpoints
	s.router.Handle("POST /api/v1/chat", s.protect(domain.ScopeChat, s.handleChat))
	s.router.Handle("GET /api/v1/sessions/{id}/messages", s.protect(domain.ScopeChat, s.handleGetSessionMessages))
	s.router.Handle("POST /api/v1/search", s.protect(domain.ScopeChat, s.handleSearch))

	// Ingestion and document management
	s.router.Handle("POST /api/v1/ingest", s.protect(domain.ScopeIngest, s.handleIngest))
	s.router.Handle("GET /api/v1/documents", s.protect(domain.ScopeIngest, s.handleListDocuments))
	s.router.Handle("GET /api/v1/documents/{id}", s.protect(domain.ScopeIngest, s.handleGetDocument))
	s.router.Handle("GET /api/v1/documents/{id}/chunks", s.protect(domain.ScopeIngest, s.handleGetDocumentChunks))
	s.router.Handle("DELETE /api/v1/documents/{id}", s.protect(domain.ScopeIngest, s.handleDeleteDocument))

	// AI service status
	s.router.Handle("GET /api/v1/ai/status", s.protect(domain.ScopeIngest, s.handleGetAIStatus))
	s.router.Handle("POST /api/v1/ai/test", s.protect(domain.ScopeIngest, s.handleTestAIConnection))
}

func (s *Server) protect(scope domain.Scope, h http.HandlerFunc) http.Handler {
	return s.auth.Authenticate(s.auth.RequireScope(scope)(h))
}

// Handler returns the root handler with logging and recovery applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
