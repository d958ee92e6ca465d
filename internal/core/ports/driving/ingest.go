package driving

import (
	"context"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// IngestService chunks and indexes uploaded documents
type IngestService interface {
	// Ingest processes each document independently and reports per-document results
	Ingest(ctx context.Context, req *domain.IngestRequest) (*domain.IngestResponse, error)

	// Reindex embeds and upserts the chunks of a stored document
	Reindex(ctx context.Context, documentID string) error
}
