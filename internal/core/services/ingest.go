package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/custodia-labs/sercha-assist/internal/chunking"
	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
)

// Ensure ingestService implements IngestService
var _ driving.IngestService = (*ingestService)(nil)

// embedBatchSize bounds how many chunk texts go into one embedding call
const embedBatchSize = 64

// IngestServiceConfig holds dependencies for the ingest service.
type IngestServiceConfig struct {
	Documents driven.DocumentStore
	Chunks    driven.ChunkStore
	Lexical   driven.LexicalIndex
	Vector    driven.VectorIndex
	Extractor driven.TextExtractor
	Chunkers  *chunking.Registry
	Embedder  *PooledEmbedder
	Queue     driven.TaskQueue // Optional; pending vector work is dropped without it
	Pipeline  domain.PipelineConfig
	Logger    *slog.Logger
	Now       func() time.Time
}

// ingestService runs the ingestion pipeline for each uploaded document:
//  1. Extract text
//  2. Skip duplicates by content fingerprint
//  3. Chunk with the selected strategy
//  4. Save document and chunks
//  5. Add chunks to the lexical index
//  6. Embed and upsert into the vector index (deferred to a task on failure)
type ingestService struct {
	documents driven.DocumentStore
	chunks    driven.ChunkStore
	lexical   driven.LexicalIndex
	vector    driven.VectorIndex
	extractor driven.TextExtractor
	chunkers  *chunking.Registry
	embedder  *PooledEmbedder
	queue     driven.TaskQueue
	cfg       domain.PipelineConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewIngestService creates a new IngestService
func NewIngestService(cfg IngestServiceConfig) driving.IngestService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &ingestService{
		documents: cfg.Documents,
		chunks:    cfg.Chunks,
		lexical:   cfg.Lexical,
		vector:    cfg.Vector,
		extractor: cfg.Extractor,
		chunkers:  cfg.Chunkers,
		embedder:  cfg.Embedder,
		queue:     cfg.Queue,
		cfg:       cfg.Pipeline,
		logger:    logger,
		now:       now,
	}
}

// Ingest processes each document independently. Only request-level
// problems (no documents, unknown strategy) are returned as errors;
// per-document failures are reported in the results.
func (s *ingestService) Ingest(ctx context.Context, req *domain.IngestRequest) (*domain.IngestResponse, error) {
	strategy := req.Strategy
	if strategy == "" {
		strategy = domain.ChunkStrategyFixed
	}
	if !strategy.IsValid() {
		return nil, fmt.Errorf("%w: unknown chunking strategy %q", domain.ErrInvalidInput, strategy)
	}
	if s.chunkers.Get(strategy) == nil {
		return nil, fmt.Errorf("%w: chunking strategy %q not available", domain.ErrInvalidInput, strategy)
	}
	if strategy == domain.ChunkStrategySemantic && (s.embedder == nil || !s.embedder.Available()) {
		return nil, fmt.Errorf("%w: semantic chunking requires an embedding service", domain.ErrInvalidInput)
	}
	if len(req.Documents) == 0 {
		return nil, fmt.Errorf("%w: no documents", domain.ErrInvalidInput)
	}

	resp := &domain.IngestResponse{
		Strategy: strategy,
		Results:  make([]domain.IngestResult, 0, len(req.Documents)),
	}
	for _, doc := range req.Documents {
		result := s.ingestOne(ctx, doc, strategy)
		if result.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
		resp.Results = append(resp.Results, result)
	}
	return resp, nil
}

func (s *ingestService) ingestOne(ctx context.Context, in domain.IngestDocument, strategy domain.ChunkStrategy) domain.IngestResult {
	start := time.Now()
	filename := strings.TrimSpace(in.Filename)
	if filename == "" {
		filename = "document.txt"
	}
	result := domain.IngestResult{Filename: filename}
	logger := s.logger.With("filename", filename)

	fail := func(err error) domain.IngestResult {
		logger.Warn("ingest failed", "error", err)
		result.Error = err.Error()
		return result
	}

	// Step 1: Extract text
	text, mimeType, err := s.extractText(in, filename)
	if err != nil {
		return fail(err)
	}
	if strings.TrimSpace(text) == "" {
		return fail(fmt.Errorf("%w: document has no text", domain.ErrInvalidInput))
	}

	// Step 2: Duplicate check
	fingerprint := Fingerprint(text)
	if existing, err := s.documents.GetByFingerprint(ctx, fingerprint); err == nil {
		return duplicateResult(result, existing)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fail(fmt.Errorf("failed to check for duplicate: %w", err))
	}

	// Step 3: Chunk
	spans, err := s.chunkers.Chunk(ctx, text, strategy)
	if err != nil {
		return fail(fmt.Errorf("failed to chunk: %w", err))
	}
	if len(spans) == 0 {
		return fail(fmt.Errorf("%w: document produced no chunks", domain.ErrInvalidInput))
	}

	// Step 4: Save document and chunks
	now := s.now()
	doc := &domain.Document{
		ID:          domain.GenerateID(),
		Filename:    filename,
		MimeType:    mimeType,
		Text:        text,
		Fingerprint: fingerprint,
		Strategy:    strategy,
		ChunkCount:  len(spans),
		IngestedAt:  now,
	}
	if err := s.documents.Save(ctx, doc); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost a race with a concurrent upload of the same text
			if existing, getErr := s.documents.GetByFingerprint(ctx, fingerprint); getErr == nil {
				return duplicateResult(result, existing)
			}
		}
		return fail(fmt.Errorf("failed to save document: %w", err))
	}

	chunks := make([]*domain.Chunk, len(spans))
	for i, sp := range spans {
		chunks[i] = &domain.Chunk{
			ID:          domain.GenerateID(),
			DocumentID:  doc.ID,
			DocumentSeq: doc.Seq,
			Filename:    filename,
			Content:     sp.Content,
			Position:    sp.Position,
			StartChar:   sp.StartChar,
			EndChar:     sp.EndChar,
			CreatedAt:   now,
		}
	}

	// Embeddings are computed before the chunk rows are written so the
	// stored rows carry them when the model is up.
	embedErr := s.embed(ctx, chunks)

	if err := s.chunks.SaveBatch(ctx, chunks); err != nil {
		if delErr := s.documents.Delete(ctx, doc.ID); delErr != nil {
			logger.Error("failed to roll back document", "document_id", doc.ID, "error", delErr)
		}
		return fail(fmt.Errorf("failed to save chunks: %w", err))
	}

	// Step 5: Lexical index
	if s.lexical != nil {
		if err := s.lexical.Add(ctx, chunks); err != nil {
			logger.Warn("failed to add chunks to lexical index", "document_id", doc.ID, "error", err)
		}
	}

	// Step 6: Vector index
	pending := false
	if embedErr != nil {
		pending = true
		logger.Warn("embedding failed, deferring vector indexing", "document_id", doc.ID, "error", embedErr)
	} else if err := s.upsert(ctx, chunks); err != nil {
		pending = true
		logger.Warn("vector upsert failed, deferring vector indexing", "document_id", doc.ID, "error", err)
	}
	if pending {
		s.enqueueReindex(ctx, doc.ID, logger)
	}

	logger.Info("ingest completed",
		"document_id", doc.ID,
		"strategy", strategy,
		"chunks", len(chunks),
		"vector_pending", pending,
		"duration", time.Since(start),
	)

	result.DocumentID = doc.ID
	result.Success = true
	result.Chunks = len(chunks)
	result.VectorPending = pending
	return result
}

// Reindex embeds a stored document's chunks and upserts them into the
// vector index. Used by the worker for deferred vector indexing.
func (s *ingestService) Reindex(ctx context.Context, documentID string) error {
	if _, err := s.documents.Get(ctx, documentID); err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	chunks, err := s.chunks.GetByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := s.embed(ctx, chunks); err != nil {
		return err
	}
	if err := s.upsert(ctx, chunks); err != nil {
		return err
	}
	s.logger.Info("document reindexed", "document_id", documentID, "chunks", len(chunks))
	return nil
}

func (s *ingestService) extractText(in domain.IngestDocument, filename string) (string, string, error) {
	if in.Text != "" {
		return in.Text, "text/plain", nil
	}
	if len(in.Content) == 0 {
		return "", "", fmt.Errorf("%w: document is empty", domain.ErrInvalidInput)
	}
	if s.extractor == nil || !s.extractor.Supports(filename, in.ContentType) {
		return "", "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filename)
	}
	return s.extractor.Extract(filename, in.ContentType, in.Content)
}

// embed fills chunk embeddings in batches
func (s *ingestService) embed(ctx context.Context, chunks []*domain.Chunk) error {
	if s.embedder == nil {
		return errNoEmbedding
	}
	for i := 0; i < len(chunks); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, end-i)
		for j, c := range chunks[i:end] {
			texts[j] = c.Content
		}
		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return domain.NewInferenceError("embed", s.embedder.Model(),
				fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(texts)))
		}
		for j, v := range vectors {
			chunks[i+j].Embedding = v
		}
	}
	return nil
}

func (s *ingestService) upsert(ctx context.Context, chunks []*domain.Chunk) error {
	if s.vector == nil {
		return domain.ErrIndexUnavailable
	}
	return withTimeout(ctx, s.cfg.Timeouts.Vector, func(ctx context.Context) error {
		if err := s.vector.EnsureCollection(ctx, len(chunks[0].Embedding)); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
		}
		if err := s.vector.Upsert(ctx, chunks); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
		}
		return nil
	})
}

func (s *ingestService) enqueueReindex(ctx context.Context, documentID string, logger *slog.Logger) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(ctx, domain.NewIndexDocumentTask(documentID)); err != nil {
		logger.Error("failed to enqueue index task", "document_id", documentID, "error", err)
	}
}

func duplicateResult(result domain.IngestResult, existing *domain.Document) domain.IngestResult {
	result.DocumentID = existing.ID
	result.Success = true
	result.Duplicate = true
	result.Chunks = existing.ChunkCount
	return result
}

// Fingerprint returns the hex blake2b-256 digest of document text
func Fingerprint(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
