// Package pgvector implements the vector index on PostgreSQL with the
// pgvector extension, using a pgx connection pool.
package pgvector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Index)(nil)

// Index stores chunk vectors in the chunk_vectors table
type Index struct {
	pool *pgxpool.Pool
}

// Connect opens a pgx pool for the given connection string
func Connect(ctx context.Context, connString string) (*Index, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Index{pool: pool}, nil
}

// EnsureCollection creates the extension, table and HNSW index
func (i *Index) EnsureCollection(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: invalid vector dimension %d", domain.ErrInvalidInput, dimensions)
	}
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunk_vectors (
			id           TEXT PRIMARY KEY,
			document_id  TEXT NOT NULL,
			document_seq BIGINT NOT NULL,
			filename     TEXT NOT NULL DEFAULT '',
			position     INTEGER NOT NULL,
			start_char   INTEGER NOT NULL,
			end_char     INTEGER NOT NULL,
			content      TEXT NOT NULL,
			embedding    vector(%d) NOT NULL
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS idx_chunk_vectors_document ON chunk_vectors(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunk_vectors_embedding ON chunk_vectors USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range stmts {
		if _, err := i.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare chunk_vectors: %w", err)
		}
	}
	return nil
}

func (i *Index) Upsert(ctx context.Context, chunks []*domain.Chunk) error {
	batch := &pgx.Batch{}
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		batch.Queue(`
			INSERT INTO chunk_vectors (id, document_id, document_seq, filename, position, start_char, end_char, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding`,
			c.ID, c.DocumentID, c.DocumentSeq, c.Filename, c.Position, c.StartChar, c.EndChar, c.Content,
			pgv.NewVector(c.Embedding),
		)
	}
	if batch.Len() == 0 {
		return nil
	}

	br := i.pool.SendBatch(ctx, batch)
	defer br.Close()
	for n := 0; n < batch.Len(); n++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to upsert vector: %w", classify(err))
		}
	}
	return nil
}

// Search orders by cosine distance; score is reported as similarity
func (i *Index) Search(ctx context.Context, vector []float32, limit int) ([]domain.ScoredChunk, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := i.pool.Query(ctx, `
		SELECT id, document_id, document_seq, filename, position, start_char, end_char, content,
		       1 - (embedding <=> $1) AS similarity
		FROM chunk_vectors
		ORDER BY embedding <=> $1, document_seq, position
		LIMIT $2`,
		pgv.NewVector(vector), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", classify(err))
	}
	defer rows.Close()

	var results []domain.ScoredChunk
	for rows.Next() {
		var c domain.Chunk
		var score float64
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.DocumentSeq, &c.Filename, &c.Position,
			&c.StartChar, &c.EndChar, &c.Content, &score); err != nil {
			return nil, fmt.Errorf("failed to scan vector row: %w", err)
		}
		results = append(results, domain.ScoredChunk{Chunk: &c, Score: score})
	}
	return results, rows.Err()
}

func (i *Index) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := i.pool.Exec(ctx, `DELETE FROM chunk_vectors WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", classify(err))
	}
	return nil
}

func (i *Index) Ping(ctx context.Context) error {
	return i.pool.Ping(ctx)
}

// Close closes the connection pool
func (i *Index) Close() {
	i.pool.Close()
}

// classify marks connection-class failures as unavailable
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	return err
}
