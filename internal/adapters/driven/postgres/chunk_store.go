package postgres

import (
	"context"
	"database/sql"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/lib/pq"
)

// Verify interface compliance
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore implements driven.ChunkStore using PostgreSQL.
// Embeddings are kept alongside the text so the in-memory vector
// index can be rebuilt at startup.
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// SaveBatch saves multiple chunks in a transaction
func (s *ChunkStore) SaveBatch(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO chunks (id, document_id, content, embedding, position, start_char, end_char, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding,
				position = EXCLUDED.position,
				start_char = EXCLUDED.start_char,
				end_char = EXCLUDED.end_char
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, chunk := range chunks {
			var embedding any
			if len(chunk.Embedding) > 0 {
				embedding = pq.Array(chunk.Embedding)
			}
			_, err = stmt.ExecContext(ctx,
				chunk.ID,
				chunk.DocumentID,
				chunk.Content,
				embedding,
				chunk.Position,
				chunk.StartChar,
				chunk.EndChar,
				chunk.CreatedAt,
			)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

const chunkSelect = `
	SELECT c.id, c.document_id, d.seq, d.filename, c.content, c.embedding,
	       c.position, c.start_char, c.end_char, c.created_at
	FROM chunks c
	JOIN documents d ON d.id = c.document_id
`

// GetByDocument retrieves all chunks for a document
func (s *ChunkStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, chunkSelect+` WHERE c.document_id = $1 ORDER BY c.position ASC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

// ListAll returns every chunk in ingestion order
func (s *ChunkStore) ListAll(ctx context.Context) ([]*domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, chunkSelect+` ORDER BY d.seq ASC, c.position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

func scanChunks(rows *sql.Rows) ([]*domain.Chunk, error) {
	var chunks []*domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		var embedding pq.Float32Array
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.DocumentSeq,
			&chunk.Filename,
			&chunk.Content,
			&embedding,
			&chunk.Position,
			&chunk.StartChar,
			&chunk.EndChar,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if len(embedding) > 0 {
			chunk.Embedding = []float32(embedding)
		}
		chunks = append(chunks, &chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// DeleteByDocument deletes all chunks for a document
func (s *ChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	return err
}
