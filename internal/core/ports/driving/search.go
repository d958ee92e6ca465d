package driving

import (
	"context"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// SearchService runs hybrid retrieval
type SearchService interface {
	// Search returns the top fused results, reranked when requested
	Search(ctx context.Context, req *domain.SearchRequest) (*domain.Retrieval, error)
}
