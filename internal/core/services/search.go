package services

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// maxSearchResults caps top_k on the search API
const maxSearchResults = 100

// searchService implements the SearchService interface
type searchService struct {
	retriever *Retriever
	reranker  *RerankStage
	cfg       domain.PipelineConfig
}

// NewSearchService creates a new SearchService
func NewSearchService(retriever *Retriever, reranker *RerankStage, cfg domain.PipelineConfig) driving.SearchService {
	return &searchService{
		retriever: retriever,
		reranker:  reranker,
		cfg:       cfg,
	}
}

// Search runs hybrid retrieval and, when requested, the rerank stage
func (s *searchService) Search(ctx context.Context, req *domain.SearchRequest) (*domain.Retrieval, error) {
	start := time.Now()

	topK := req.TopK
	if topK <= 0 {
		topK = s.cfg.Retrieval.TopK
	}
	if topK > maxSearchResults {
		topK = maxSearchResults
	}

	fanOut := topK
	if req.Rerank && s.cfg.Retrieval.RerankCandidates > fanOut {
		fanOut = s.cfg.Retrieval.RerankCandidates
	}

	result, err := s.retriever.Search(ctx, req.Query, fanOut)
	if err != nil {
		return nil, err
	}

	if req.Rerank {
		result.Results = s.reranker.rerankOrFused(ctx, result.Query, result.Results)
	}
	if len(result.Results) > topK {
		result.Results = result.Results[:topK]
	}

	result.Took = time.Since(start)
	return result, nil
}
