package services

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-assist/internal/runtime"
)

var _ driven.EmbeddingService = (*PooledEmbedder)(nil)

// PooledEmbedder resolves the current embedding service on every call and
// runs it on the inference pool with the embedding timeout and one retry.
// The semantic chunker and ingestion share it so a provider swap at
// runtime takes effect for both.
type PooledEmbedder struct {
	services *runtime.Services
	pool     driven.InferencePool
	timeout  time.Duration
	backoff  time.Duration
}

// NewPooledEmbedder creates an embedder backed by the runtime services
func NewPooledEmbedder(services *runtime.Services, pool driven.InferencePool, timeouts domain.TimeoutConfig) *PooledEmbedder {
	return &PooledEmbedder{
		services: services,
		pool:     pool,
		timeout:  timeouts.Embedding,
		backoff:  timeouts.RetryBackoff,
	}
}

// Available reports whether an embedding service is configured
func (p *PooledEmbedder) Available() bool {
	return p.services.EmbeddingService() != nil
}

func (p *PooledEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embedder := p.services.EmbeddingService()
	if embedder == nil {
		return nil, errNoEmbedding
	}
	var out [][]float32
	err := retryOnce(ctx, p.timeout, p.backoff, func(ctx context.Context) error {
		return infer(ctx, p.pool, func(ctx context.Context) error {
			var err error
			out, err = embedder.Embed(ctx, texts)
			return err
		})
	})
	if err != nil {
		return nil, domain.NewInferenceError("embed", embedder.Model(), err)
	}
	return out, nil
}

func (p *PooledEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embedder := p.services.EmbeddingService()
	if embedder == nil {
		return nil, errNoEmbedding
	}
	var out []float32
	err := retryOnce(ctx, p.timeout, p.backoff, func(ctx context.Context) error {
		return infer(ctx, p.pool, func(ctx context.Context) error {
			var err error
			out, err = embedder.EmbedQuery(ctx, query)
			return err
		})
	})
	if err != nil {
		return nil, domain.NewInferenceError("embed query", embedder.Model(), err)
	}
	return out, nil
}

func (p *PooledEmbedder) Dimensions() int {
	if embedder := p.services.EmbeddingService(); embedder != nil {
		return embedder.Dimensions()
	}
	return 0
}

func (p *PooledEmbedder) Model() string {
	if embedder := p.services.EmbeddingService(); embedder != nil {
		return embedder.Model()
	}
	return ""
}

func (p *PooledEmbedder) HealthCheck(ctx context.Context) error {
	embedder := p.services.EmbeddingService()
	if embedder == nil {
		return errNoEmbedding
	}
	return embedder.HealthCheck(ctx)
}

// Close is a no-op; the runtime services own the underlying embedder.
func (p *PooledEmbedder) Close() error {
	return nil
}
