package driven

import (
	"context"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// DocumentStore handles document persistence (PostgreSQL)
type DocumentStore interface {
	// Save stores a new document and assigns its ingestion sequence
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetByFingerprint retrieves a document by content fingerprint
	GetByFingerprint(ctx context.Context, fingerprint string) (*domain.Document, error)

	// List returns documents in ingestion order with pagination
	List(ctx context.Context, limit, offset int) ([]*domain.Document, error)

	// Count returns total document count
	Count(ctx context.Context) (int, error)

	// Delete deletes a document
	Delete(ctx context.Context, id string) error
}

// ChunkStore handles chunk persistence (PostgreSQL)
type ChunkStore interface {
	// SaveBatch saves multiple chunks in a transaction
	SaveBatch(ctx context.Context, chunks []*domain.Chunk) error

	// GetByDocument retrieves all chunks for a document ordered by position
	GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error)

	// ListAll returns every chunk in ingestion order (used to build the lexical index)
	ListAll(ctx context.Context) ([]*domain.Chunk, error)

	// DeleteByDocument deletes all chunks for a document
	DeleteByDocument(ctx context.Context, documentID string) error
}
