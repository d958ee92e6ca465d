package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// documentService implements the DocumentService interface
type documentService struct {
	documentStore driven.DocumentStore
	chunkStore    driven.ChunkStore
	lexical       driven.LexicalIndex
	vector        driven.VectorIndex
	logger        *slog.Logger
}

// NewDocumentService creates a new DocumentService.
// lexical and vector may be nil when the index is not configured.
func NewDocumentService(
	documentStore driven.DocumentStore,
	chunkStore driven.ChunkStore,
	lexical driven.LexicalIndex,
	vector driven.VectorIndex,
	logger *slog.Logger,
) driving.DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentService{
		documentStore: documentStore,
		chunkStore:    chunkStore,
		lexical:       lexical,
		vector:        vector,
		logger:        logger,
	}
}

// Get retrieves a document by ID
func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.documentStore.Get(ctx, id)
}

// GetWithChunks retrieves a document with its chunks
func (s *documentService) GetWithChunks(ctx context.Context, id string) (*domain.DocumentWithChunks, error) {
	doc, err := s.documentStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunkStore.GetByDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.DocumentWithChunks{
		Document: doc,
		Chunks:   chunks,
	}, nil
}

// List returns documents in ingestion order
func (s *documentService) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return s.documentStore.List(ctx, limit, offset)
}

// Count returns the total number of documents
func (s *documentService) Count(ctx context.Context) (int, error) {
	return s.documentStore.Count(ctx)
}

// Delete removes the document from both indexes, then its chunks and
// the document row. Index failures are logged; the lexical index is
// rebuilt from the chunk store on refresh anyway.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if _, err := s.documentStore.Get(ctx, id); err != nil {
		return err
	}

	if s.vector != nil {
		if err := s.vector.DeleteByDocument(ctx, id); err != nil {
			s.logger.Warn("failed to delete from vector index", "document_id", id, "error", err)
		}
	}
	if s.lexical != nil {
		if err := s.lexical.Remove(ctx, id); err != nil {
			s.logger.Warn("failed to delete from lexical index", "document_id", id, "error", err)
		}
	}

	if err := s.chunkStore.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if err := s.documentStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	s.logger.Info("document deleted", "document_id", id)
	return nil
}
