package ai

import (
	"fmt"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

// Factory creates AI services based on configuration
type Factory struct{}

// NewFactory creates a new AI service factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateEmbeddingService creates an embedding service from settings
func (f *Factory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI, domain.AIProviderTEI:
		return NewOpenAIEmbedding(settings.APIKey, settings.Model, settings.BaseURL, settings.Dimensions)
	case domain.AIProviderOllama:
		return NewOllamaEmbedding(settings.BaseURL, settings.Model, settings.Dimensions)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}

// CreateReranker creates a cross-encoder reranker from settings
func (f *Factory) CreateReranker(settings *domain.RerankerSettings) (driven.Reranker, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderTEI:
		return NewTEIReranker(settings.BaseURL, settings.Model, settings.APIKey)
	default:
		return nil, fmt.Errorf("%w: %s does not serve rerank", domain.ErrInvalidProvider, settings.Provider)
	}
}

// CreateLLMBackend creates one named generation backend
func (f *Factory) CreateLLMBackend(settings *domain.LLMBackendSettings) (driven.LLMBackend, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: llm backend not configured", domain.ErrInvalidInput)
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return NewOpenAIChat(settings)
	case domain.AIProviderOllama:
		return NewOllamaChat(settings)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}
