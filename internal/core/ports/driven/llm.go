package driven

import (
	"context"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// LLMBackend is one generation backend variant (remote or local).
// Both variants serve free-text and structured generation.
type LLMBackend interface {
	// Name returns the name callers select this backend by
	Name() string

	// Model returns the model name being used
	Model() string

	// Generate runs one completion. A model that answers without the
	// requested structure returns a result with Declined set, not an error.
	// Failures are returned as *domain.InferenceError.
	Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResult, error)

	// Ping verifies the backend is reachable
	Ping(ctx context.Context) error

	// Close releases resources held by the backend
	Close() error
}
