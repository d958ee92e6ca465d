package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/lib/pq"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

const documentColumns = `id, seq, filename, mime_type, body, fingerprint, strategy, chunk_count, ingested_at`

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Save stores a new document. The database assigns Seq.
// A fingerprint collision returns domain.ErrAlreadyExists.
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (id, filename, mime_type, body, fingerprint, strategy, chunk_count, ingested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq
	`

	err := s.db.QueryRowContext(ctx, query,
		doc.ID,
		doc.Filename,
		doc.MimeType,
		doc.Text,
		doc.Fingerprint,
		doc.Strategy,
		doc.ChunkCount,
		doc.IngestedAt,
	).Scan(&doc.Seq)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return s.scanDocument(s.db.QueryRowContext(ctx, query, id))
}

// GetByFingerprint retrieves a document by content fingerprint
func (s *DocumentStore) GetByFingerprint(ctx context.Context, fingerprint string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE fingerprint = $1`
	return s.scanDocument(s.db.QueryRowContext(ctx, query, fingerprint))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *DocumentStore) scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var mimeType sql.NullString

	err := row.Scan(
		&doc.ID,
		&doc.Seq,
		&doc.Filename,
		&mimeType,
		&doc.Text,
		&doc.Fingerprint,
		&doc.Strategy,
		&doc.ChunkCount,
		&doc.IngestedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	doc.MimeType = mimeType.String
	return &doc, nil
}

// List returns documents in ingestion order with pagination
func (s *DocumentStore) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		ORDER BY seq ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := s.scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Count returns total document count
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// Delete deletes a document. Chunks go with it via ON DELETE CASCADE.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// isUniqueViolation reports a Postgres unique_violation (23505)
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
