package driven

import "context"

// Reranker scores (query, text) pairs with a cross-encoder.
// Scores are returned in input order; each pair is scored independently.
type Reranker interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)

	// Model returns the model name being used
	Model() string

	// HealthCheck verifies the reranker is available
	HealthCheck(ctx context.Context) error
}
