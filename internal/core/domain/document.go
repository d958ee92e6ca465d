package domain

import "time"

// ChunkStrategy selects how document text is split
type ChunkStrategy string

const (
	ChunkStrategyFixed    ChunkStrategy = "fixed"    // Character windows with overlap (default)
	ChunkStrategySemantic ChunkStrategy = "semantic" // Sentence groups merged by embedding similarity
)

// IsValid reports whether the strategy is known
func (s ChunkStrategy) IsValid() bool {
	return s == ChunkStrategyFixed || s == ChunkStrategySemantic
}

// Document represents an ingested document.
// Immutable once stored.
type Document struct {
	ID          string        `json:"id"`
	Seq         int64         `json:"seq"` // Ingestion order, assigned by the store
	Filename    string        `json:"filename"`
	MimeType    string        `json:"mime_type"`
	Text        string        `json:"-"`
	Fingerprint string        `json:"fingerprint"`
	Strategy    ChunkStrategy `json:"strategy"`
	ChunkCount  int           `json:"chunk_count"`
	IngestedAt  time.Time     `json:"ingested_at"`
}

// Chunk represents an indexable span of a document
type Chunk struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	DocumentSeq int64     `json:"document_seq"`
	Filename    string    `json:"filename"`
	Content     string    `json:"content"`
	Embedding   []float32 `json:"embedding,omitempty"`
	Position    int       `json:"position"` // Ordinal within document
	StartChar   int       `json:"start_char"`
	EndChar     int       `json:"end_char"`
	CreatedAt   time.Time `json:"created_at"`
}

// Before orders chunks by ingestion order, then position.
func (c *Chunk) Before(other *Chunk) bool {
	if c.DocumentSeq != other.DocumentSeq {
		return c.DocumentSeq < other.DocumentSeq
	}
	if c.DocumentID != other.DocumentID {
		return c.DocumentID < other.DocumentID
	}
	if c.Position != other.Position {
		return c.Position < other.Position
	}
	return c.ID < other.ID
}

// DocumentWithChunks combines a document with its chunks
type DocumentWithChunks struct {
	Document *Document `json:"document"`
	Chunks   []*Chunk  `json:"chunks"`
}

// IngestDocument is one uploaded payload
type IngestDocument struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Content     []byte `json:"-"`
	Text        string `json:"text,omitempty"`
}

// IngestRequest is a batch of documents with a chunking strategy
type IngestRequest struct {
	Documents []IngestDocument `json:"documents"`
	Strategy  ChunkStrategy    `json:"strategy"`
}

// IngestResult reports the outcome for one document
type IngestResult struct {
	Filename      string `json:"filename"`
	DocumentID    string `json:"document_id,omitempty"`
	Success       bool   `json:"success"`
	Chunks        int    `json:"chunks"`
	Duplicate     bool   `json:"duplicate,omitempty"`
	VectorPending bool   `json:"vector_pending,omitempty"`
	Error         string `json:"error,omitempty"`
}

// IngestResponse aggregates per-document results
type IngestResponse struct {
	Strategy  ChunkStrategy  `json:"strategy"`
	Results   []IngestResult `json:"results"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
}
