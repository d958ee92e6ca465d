// Package memory provides in-process implementations of storage ports
// for single-instance deployments and tests.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an exact cosine index held in memory
type VectorIndex struct {
	mu         sync.RWMutex
	dimensions int
	chunks     map[string]*domain.Chunk
}

// NewVectorIndex creates an empty index
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{chunks: make(map[string]*domain.Chunk)}
}

func (v *VectorIndex) EnsureCollection(ctx context.Context, dimensions int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dimensions = dimensions
	return nil
}

func (v *VectorIndex) Upsert(ctx context.Context, chunks []*domain.Chunk) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		v.chunks[c.ID] = c
	}
	return nil
}

// Search scans every vector. Equal similarities keep ingestion order.
func (v *VectorIndex) Search(ctx context.Context, vector []float32, limit int) ([]domain.ScoredChunk, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	results := make([]domain.ScoredChunk, 0, len(v.chunks))
	for _, c := range v.chunks {
		results = append(results, domain.ScoredChunk{Chunk: c, Score: cosine(vector, c.Embedding)})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Before(results[j].Chunk)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (v *VectorIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, c := range v.chunks {
		if c.DocumentID == documentID {
			delete(v.chunks, id)
		}
	}
	return nil
}

func (v *VectorIndex) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored vectors
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.chunks)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
