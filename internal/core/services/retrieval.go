package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-assist/internal/runtime"
)

// RetrieverConfig holds dependencies for the hybrid retriever.
type RetrieverConfig struct {
	Lexical  driven.LexicalIndex
	Vector   driven.VectorIndex
	Services *runtime.Services // Embedding service is looked up per query
	Pool     driven.InferencePool
	Pipeline domain.PipelineConfig
	Logger   *slog.Logger
}

// Retriever queries the lexical and vector indexes in parallel and
// fuses the two rankings. When one side fails the other side's hits
// are fused alone; only when both fail does the search fail.
type Retriever struct {
	lexical  driven.LexicalIndex
	vector   driven.VectorIndex
	services *runtime.Services
	pool     driven.InferencePool
	cfg      domain.PipelineConfig
	logger   *slog.Logger
}

// NewRetriever creates a hybrid retriever.
func NewRetriever(cfg RetrieverConfig) *Retriever {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		lexical:  cfg.Lexical,
		vector:   cfg.Vector,
		services: cfg.Services,
		pool:     cfg.Pool,
		cfg:      cfg.Pipeline,
		logger:   logger,
	}
}

// Search returns up to topK fused results for query.
// topK <= 0 uses the configured default.
func (r *Retriever) Search(ctx context.Context, query string, topK int) (*domain.Retrieval, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = r.cfg.Retrieval.TopK
	}

	var (
		lexHits, vecHits []domain.ScoredChunk
		lexErr, vecErr   error
		wg               sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		lexHits, lexErr = r.searchLexical(ctx, query)
	}()
	go func() {
		defer wg.Done()
		vecHits, vecErr = r.searchVector(ctx, query)
	}()
	wg.Wait()

	mode := domain.SearchModeHybrid
	switch {
	case lexErr != nil && vecErr != nil:
		r.logger.Warn("hybrid search: both indexes failed",
			"lexical_error", lexErr,
			"vector_error", vecErr,
		)
		return nil, fmt.Errorf("%w: lexical: %v; vector: %v", domain.ErrIndexUnavailable, lexErr, vecErr)
	case lexErr != nil:
		r.logger.Warn("hybrid search: lexical search failed, using vector results only", "error", lexErr)
		mode = domain.SearchModeSemanticOnly
	case vecErr != nil:
		if !errors.Is(vecErr, errNoEmbedding) {
			r.logger.Warn("hybrid search: vector search failed, using lexical results only", "error", vecErr)
		}
		mode = domain.SearchModeTextOnly
	}

	fused := FuseRRF(lexHits, vecHits, r.cfg.Retrieval.RRFK)
	if len(fused) > topK {
		fused = fused[:topK]
	}

	r.logger.Debug("hybrid search",
		"mode", mode,
		"lexical_hits", len(lexHits),
		"vector_hits", len(vecHits),
		"results", len(fused),
	)

	return &domain.Retrieval{
		Query:   query,
		Mode:    mode,
		Results: fused,
		Took:    time.Since(start),
	}, nil
}

// errNoEmbedding marks the vector side as skipped rather than failed
var errNoEmbedding = errors.New("embedding service not configured")

func (r *Retriever) searchLexical(ctx context.Context, query string) ([]domain.ScoredChunk, error) {
	if r.lexical == nil {
		return nil, domain.ErrIndexUnavailable
	}
	var out []domain.ScoredChunk
	err := withTimeout(ctx, r.cfg.Timeouts.Vector, func(ctx context.Context) error {
		var err error
		out, err = r.lexical.Search(ctx, query, r.cfg.Retrieval.LexicalCandidates)
		return err
	})
	return out, err
}

func (r *Retriever) searchVector(ctx context.Context, query string) ([]domain.ScoredChunk, error) {
	if r.vector == nil {
		return nil, domain.ErrIndexUnavailable
	}
	embedder := r.services.EmbeddingService()
	if embedder == nil {
		return nil, errNoEmbedding
	}

	var vec []float32
	err := retryOnce(ctx, r.cfg.Timeouts.Embedding, r.cfg.Timeouts.RetryBackoff, func(ctx context.Context) error {
		return infer(ctx, r.pool, func(ctx context.Context) error {
			var err error
			vec, err = embedder.EmbedQuery(ctx, query)
			return err
		})
	})
	if err != nil {
		return nil, domain.NewInferenceError("embed query", embedder.Model(), err)
	}

	var out []domain.ScoredChunk
	err = withTimeout(ctx, r.cfg.Timeouts.Vector, func(ctx context.Context) error {
		var err error
		out, err = r.vector.Search(ctx, vec, r.cfg.Retrieval.VectorCandidates)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	return out, nil
}
