package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Services holds the model handles shared by every request.
// Handles are built once at process start and passed to services
// explicitly; swapping one closes the previous handle.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	// Dynamic services (can be nil)
	embeddingService driven.EmbeddingService
	reranker         driven.Reranker
	llmBackends      map[string]driven.LLMBackend
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config:      config,
		llmBackends: make(map[string]driven.LLMBackend),
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// Reranker returns the current reranker (may be nil)
func (s *Services) Reranker() driven.Reranker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reranker
}

// LLMBackend returns the backend registered under name.
// An empty name selects the configured default.
func (s *Services) LLMBackend(name string) (driven.LLMBackend, error) {
	if name == "" {
		name = s.config.DefaultBackend()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.llmBackends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBackend, name)
	}
	return b, nil
}

// SetEmbeddingService updates the embedding service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
	}

	s.embeddingService = svc
	s.config.SetEmbeddingAvailable(svc != nil)
}

// SetReranker updates the reranker
func (s *Services) SetReranker(r driven.Reranker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reranker = r
	s.config.SetRerankerAvailable(r != nil)
}

// RegisterLLMBackend adds a backend under its own name.
// A backend already registered under that name is closed and replaced.
func (s *Services) RegisterLLMBackend(b driven.LLMBackend) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := b.Name()
	if old, ok := s.llmBackends[name]; ok {
		_ = old.Close()
	}
	s.llmBackends[name] = b
	s.config.SetLLMBackend(name, true)
}

// RemoveLLMBackend closes and unregisters a backend
func (s *Services) RemoveLLMBackend(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.llmBackends[name]; ok {
		_ = old.Close()
		delete(s.llmBackends, name)
	}
	s.config.SetLLMBackend(name, false)
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	s.reranker = nil
	for name, b := range s.llmBackends {
		_ = b.Close()
		s.config.SetLLMBackend(name, false)
	}
	s.llmBackends = make(map[string]driven.LLMBackend)

	s.config.SetEmbeddingAvailable(false)
	s.config.SetRerankerAvailable(false)

	return nil
}

// ValidateAndSetEmbedding validates connectivity before setting embedding service
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}

	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetEmbeddingService(svc)
	return nil
}

// ValidateAndSetReranker validates connectivity before setting the reranker
func (s *Services) ValidateAndSetReranker(ctx context.Context, r driven.Reranker) error {
	if r == nil {
		s.SetReranker(nil)
		return nil
	}
	if err := r.HealthCheck(ctx); err != nil {
		return err
	}
	s.SetReranker(r)
	return nil
}

// ValidateAndRegisterLLM validates connectivity before registering a backend
func (s *Services) ValidateAndRegisterLLM(ctx context.Context, b driven.LLMBackend) error {
	if b == nil {
		return nil
	}

	if err := b.Ping(ctx); err != nil {
		_ = b.Close()
		return err
	}

	s.RegisterLLMBackend(b)
	return nil
}
