// Package chunking splits document text into indexable spans.
package chunking

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// Span is one chunk of text with rune offsets into the source text
type Span struct {
	Content   string
	Position  int
	StartChar int
	EndChar   int
}

// Chunker splits text using one strategy.
// Empty or whitespace-only text yields no spans and no error.
type Chunker interface {
	Strategy() domain.ChunkStrategy
	Chunk(ctx context.Context, text string) ([]Span, error)
}

// Registry selects a chunker by strategy
type Registry struct {
	mu       sync.RWMutex
	chunkers map[domain.ChunkStrategy]Chunker
}

// NewRegistry creates a registry holding the given chunkers
func NewRegistry(chunkers ...Chunker) *Registry {
	r := &Registry{chunkers: make(map[domain.ChunkStrategy]Chunker)}
	for _, c := range chunkers {
		r.Register(c)
	}
	return r
}

// Register adds or replaces the chunker for its strategy
func (r *Registry) Register(c Chunker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunkers[c.Strategy()] = c
}

// Get returns the chunker for a strategy, or nil
func (r *Registry) Get(strategy domain.ChunkStrategy) Chunker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chunkers[strategy]
}

// List returns the registered strategies, sorted
func (r *Registry) List() []domain.ChunkStrategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ChunkStrategy, 0, len(r.chunkers))
	for s := range r.chunkers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Chunk splits text with the chunker registered for strategy.
// An empty strategy selects fixed.
func (r *Registry) Chunk(ctx context.Context, text string, strategy domain.ChunkStrategy) ([]Span, error) {
	if strategy == "" {
		strategy = domain.ChunkStrategyFixed
	}
	c := r.Get(strategy)
	if c == nil {
		return nil, fmt.Errorf("%w: chunking strategy %q not available", domain.ErrInvalidInput, strategy)
	}
	return c.Chunk(ctx, text)
}
