package driven

import (
	"context"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// LexicalIndex scores chunks by keyword relevance (BM25).
// Writes happen during ingestion; readers may observe the previous
// snapshot while a write is in flight.
type LexicalIndex interface {
	// Add indexes chunks. Chunks with an existing ID are replaced.
	Add(ctx context.Context, chunks []*domain.Chunk) error

	// Replace swaps the whole index contents
	Replace(ctx context.Context, chunks []*domain.Chunk) error

	// Remove drops all chunks of a document
	Remove(ctx context.Context, documentID string) error

	// Search returns up to limit chunks with a positive score, best first
	Search(ctx context.Context, query string, limit int) ([]domain.ScoredChunk, error)

	// Len returns the number of indexed chunks
	Len() int
}

// VectorIndex stores chunk embeddings and answers cosine nearest-neighbour queries
type VectorIndex interface {
	// EnsureCollection prepares storage for vectors of the given dimension
	EnsureCollection(ctx context.Context, dimensions int) error

	// Upsert stores chunks that carry an embedding
	Upsert(ctx context.Context, chunks []*domain.Chunk) error

	// Search returns up to limit chunks by cosine similarity, best first
	Search(ctx context.Context, vector []float32, limit int) ([]domain.ScoredChunk, error)

	// DeleteByDocument removes every vector of a document
	DeleteByDocument(ctx context.Context, documentID string) error

	// Ping checks if the index is reachable
	Ping(ctx context.Context) error
}
