package driven

import (
	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// AIServiceFactory creates AI services based on configuration
type AIServiceFactory interface {
	// CreateEmbeddingService creates an embedding service from settings
	// Returns nil, nil if settings are not configured
	CreateEmbeddingService(settings *domain.EmbeddingSettings) (EmbeddingService, error)

	// CreateReranker creates a cross-encoder reranker from settings
	// Returns nil, nil if settings are not configured
	CreateReranker(settings *domain.RerankerSettings) (Reranker, error)

	// CreateLLMBackend creates one named generation backend
	CreateLLMBackend(settings *domain.LLMBackendSettings) (LLMBackend, error)
}
