package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-assist/internal/runtime"
)

// RerankStage re-scores fused candidates with the cross-encoder and is
// the final ranking authority.
type RerankStage struct {
	services *runtime.Services
	pool     driven.InferencePool
	cfg      domain.PipelineConfig
	logger   *slog.Logger
}

// NewRerankStage creates a rerank stage. The reranker is looked up in
// services on every call.
func NewRerankStage(services *runtime.Services, pool driven.InferencePool, cfg domain.PipelineConfig, logger *slog.Logger) *RerankStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &RerankStage{services: services, pool: pool, cfg: cfg, logger: logger}
}

// Rerank scores each (query, chunk) pair and sorts by score, best first.
// Ties keep fused order. Candidates beyond the configured cap are
// dropped before scoring.
func (s *RerankStage) Rerank(ctx context.Context, query string, candidates []*domain.SearchResult) ([]*domain.SearchResult, error) {
	if len(candidates) == 0 {
		return []*domain.SearchResult{}, nil
	}
	reranker := s.services.Reranker()
	if reranker == nil {
		return nil, fmt.Errorf("%w: reranker not configured", domain.ErrServiceUnavailable)
	}

	if limit := s.cfg.Retrieval.RerankCandidates; limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Chunk.Content
	}

	var scores []float64
	err := retryOnce(ctx, s.cfg.Timeouts.Rerank, s.cfg.Timeouts.RetryBackoff, func(ctx context.Context) error {
		return infer(ctx, s.pool, func(ctx context.Context) error {
			var err error
			scores, err = reranker.Score(ctx, query, texts)
			return err
		})
	})
	if err != nil {
		return nil, domain.NewInferenceError("rerank", reranker.Model(), err)
	}
	if len(scores) != len(candidates) {
		return nil, &domain.InferenceError{
			Op:  "rerank",
			Err: fmt.Errorf("expected %d scores, got %d", len(candidates), len(scores)),
		}
	}

	return ApplyRerankScores(candidates, scores), nil
}

// ApplyRerankScores returns copies of candidates carrying scores,
// ordered by descending score with ties broken by fused rank.
func ApplyRerankScores(candidates []*domain.SearchResult, scores []float64) []*domain.SearchResult {
	out := make([]*domain.SearchResult, len(candidates))
	for i, c := range candidates {
		cp := *c
		score := scores[i]
		cp.RerankScore = &score
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool {
		if *out[i].RerankScore != *out[j].RerankScore {
			return *out[i].RerankScore > *out[j].RerankScore
		}
		return out[i].FusedRank < out[j].FusedRank
	})
	return out
}

// rerankOrFused reranks when a reranker is available and falls back to
// fused order when it is not or when it fails.
func (s *RerankStage) rerankOrFused(ctx context.Context, query string, candidates []*domain.SearchResult) []*domain.SearchResult {
	if s == nil || s.services.Reranker() == nil {
		return candidates
	}
	reranked, err := s.Rerank(ctx, query, candidates)
	if err != nil {
		s.logger.Warn("rerank failed, keeping fused order", "error", err)
		return candidates
	}
	return reranked
}
