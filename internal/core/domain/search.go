package domain

import "time"

// SearchMode reports which indexes contributed to a result set
type SearchMode string

const (
	SearchModeHybrid       SearchMode = "hybrid"   // BM25 + vector
	SearchModeTextOnly     SearchMode = "text"     // BM25 only (vector stage degraded)
	SearchModeSemanticOnly SearchMode = "semantic" // Vector only (lexical stage degraded)
)

// ScoredChunk is a single index hit with its raw score
type ScoredChunk struct {
	Chunk *Chunk  `json:"chunk"`
	Score float64 `json:"score"`
}

// SearchResult is a fused (and optionally reranked) retrieval hit.
// At most one of LexicalScore and VectorScore is nil; FusedScore is
// always set once fusion runs. Transient, never persisted.
type SearchResult struct {
	Chunk        *Chunk   `json:"chunk"`
	LexicalScore *float64 `json:"lexical_score,omitempty"`
	VectorScore  *float64 `json:"vector_score,omitempty"`
	FusedScore   float64  `json:"fused_score"`
	FusedRank    int      `json:"fused_rank"` // 1-based position after fusion
	RerankScore  *float64 `json:"rerank_score,omitempty"`
}

// Retrieval is the output of one hybrid search
type Retrieval struct {
	Query   string          `json:"query"`
	Mode    SearchMode      `json:"mode"`
	Results []*SearchResult `json:"results"`
	Took    time.Duration   `json:"took" swaggertype:"integer" example:"1500000"`
}

// SearchRequest is the debug retrieval API request
type SearchRequest struct {
	Query  string `json:"query"`
	TopK   int    `json:"top_k"`
	Rerank bool   `json:"rerank"`
}
