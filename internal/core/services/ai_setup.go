package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-assist/internal/runtime"
)

// Ensure AISetup implements AIStatusService
var _ driving.AIStatusService = (*AISetup)(nil)

// AISetup builds AI services from settings and installs them into the
// runtime services. Each service is health-checked first; one that fails
// stays unavailable without blocking the others.
type AISetup struct {
	factory  driven.AIServiceFactory
	services *runtime.Services
	logger   *slog.Logger
}

// NewAISetup creates a new AISetup
func NewAISetup(factory driven.AIServiceFactory, services *runtime.Services, logger *slog.Logger) *AISetup {
	if logger == nil {
		logger = slog.Default()
	}
	return &AISetup{factory: factory, services: services, logger: logger}
}

// Apply validates settings and hot-swaps the configured services.
// defaultBackend selects the backend used when a chat request names none.
func (a *AISetup) Apply(ctx context.Context, settings *domain.AISettings, defaultBackend string) (*driving.AIStatus, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	status := &driving.AIStatus{Backends: make([]driving.AIServiceStatus, 0, len(settings.Backends))}

	// Embedding
	if settings.Embedding.IsConfigured() {
		status.Embedding = a.applyEmbedding(ctx, &settings.Embedding)
	} else {
		a.services.SetEmbeddingService(nil)
	}

	// Reranker
	if settings.Reranker.IsConfigured() {
		status.Reranker = a.applyReranker(ctx, &settings.Reranker)
	} else {
		a.services.SetReranker(nil)
	}

	// Generation backends
	for i := range settings.Backends {
		b := &settings.Backends[i]
		if !b.IsConfigured() {
			status.Backends = append(status.Backends, driving.AIServiceStatus{
				Name:     b.Name,
				Provider: b.Provider,
				Error:    "not configured",
			})
			continue
		}
		status.Backends = append(status.Backends, a.applyBackend(ctx, b))
	}

	if defaultBackend != "" {
		if _, err := a.services.LLMBackend(defaultBackend); err != nil {
			return status, fmt.Errorf("%w: default backend %q is not available", domain.ErrInvalidInput, defaultBackend)
		}
		a.services.Config().SetDefaultBackend(defaultBackend)
	}

	status.DefaultBackend = a.services.Config().DefaultBackend()
	status.EffectiveSearchMode = a.services.Config().EffectiveSearchMode()
	return status, nil
}

func (a *AISetup) applyEmbedding(ctx context.Context, s *domain.EmbeddingSettings) driving.AIServiceStatus {
	st := driving.AIServiceStatus{Provider: s.Provider, Model: s.Model}
	svc, err := a.factory.CreateEmbeddingService(s)
	if err == nil {
		err = a.services.ValidateAndSetEmbedding(ctx, svc)
	}
	if err != nil {
		a.logger.Warn("embedding service unavailable", "provider", s.Provider, "model", s.Model, "error", err)
		st.Error = err.Error()
		return st
	}
	st.Available = svc != nil
	return st
}

func (a *AISetup) applyReranker(ctx context.Context, s *domain.RerankerSettings) driving.AIServiceStatus {
	st := driving.AIServiceStatus{Provider: s.Provider, Model: s.Model}
	r, err := a.factory.CreateReranker(s)
	if err == nil {
		err = a.services.ValidateAndSetReranker(ctx, r)
	}
	if err != nil {
		a.logger.Warn("reranker unavailable, results will use fused order", "model", s.Model, "error", err)
		st.Error = err.Error()
		return st
	}
	st.Available = r != nil
	return st
}

func (a *AISetup) applyBackend(ctx context.Context, s *domain.LLMBackendSettings) driving.AIServiceStatus {
	st := driving.AIServiceStatus{Name: s.Name, Provider: s.Provider, Model: s.Model}
	b, err := a.factory.CreateLLMBackend(s)
	if err == nil {
		err = a.services.ValidateAndRegisterLLM(ctx, b)
	}
	if err != nil {
		a.services.RemoveLLMBackend(s.Name)
		a.logger.Warn("llm backend unavailable", "backend", s.Name, "provider", s.Provider, "error", err)
		st.Error = err.Error()
		return st
	}
	st.Available = true
	return st
}

// Status returns the current state of the AI services
func (a *AISetup) Status() *driving.AIStatus {
	status := &driving.AIStatus{
		Backends:            []driving.AIServiceStatus{},
		DefaultBackend:      a.services.Config().DefaultBackend(),
		EffectiveSearchMode: a.services.Config().EffectiveSearchMode(),
	}
	if e := a.services.EmbeddingService(); e != nil {
		status.Embedding = driving.AIServiceStatus{Available: true, Model: e.Model()}
	}
	if r := a.services.Reranker(); r != nil {
		status.Reranker = driving.AIServiceStatus{Available: true, Model: r.Model()}
	}
	for _, name := range a.services.Config().LLMBackends() {
		st := driving.AIServiceStatus{Name: name}
		if b, err := a.services.LLMBackend(name); err == nil {
			st.Available = true
			st.Model = b.Model()
		}
		status.Backends = append(status.Backends, st)
	}
	return status
}

// TestConnection checks every installed AI service
func (a *AISetup) TestConnection(ctx context.Context) error {
	if e := a.services.EmbeddingService(); e != nil {
		if err := e.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding: %w", err)
		}
	}
	if r := a.services.Reranker(); r != nil {
		if err := r.HealthCheck(ctx); err != nil {
			return fmt.Errorf("reranker: %w", err)
		}
	}
	for _, name := range a.services.Config().LLMBackends() {
		b, err := a.services.LLMBackend(name)
		if err != nil {
			continue
		}
		if err := b.Ping(ctx); err != nil {
			return fmt.Errorf("llm backend %s: %w", name, err)
		}
	}
	return nil
}
