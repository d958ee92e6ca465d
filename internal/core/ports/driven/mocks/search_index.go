package mocks

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

var (
	_ driven.LexicalIndex = (*MockLexicalIndex)(nil)
	_ driven.VectorIndex  = (*MockVectorIndex)(nil)
)

// MockLexicalIndex scores chunks by the number of query words they contain.
// SearchFn, when set, replaces the default scoring.
type MockLexicalIndex struct {
	mu     sync.RWMutex
	chunks map[string]*domain.Chunk

	SearchFn func(query string, limit int) ([]domain.ScoredChunk, error)
}

// NewMockLexicalIndex creates an empty MockLexicalIndex
func NewMockLexicalIndex() *MockLexicalIndex {
	return &MockLexicalIndex{chunks: make(map[string]*domain.Chunk)}
}

func (m *MockLexicalIndex) Add(ctx context.Context, chunks []*domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		m.chunks[c.ID] = c
	}
	return nil
}

func (m *MockLexicalIndex) Replace(ctx context.Context, chunks []*domain.Chunk) error {
	m.mu.Lock()
	m.chunks = make(map[string]*domain.Chunk, len(chunks))
	m.mu.Unlock()
	return m.Add(ctx, chunks)
}

func (m *MockLexicalIndex) Remove(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.chunks {
		if c.DocumentID == documentID {
			delete(m.chunks, id)
		}
	}
	return nil
}

func (m *MockLexicalIndex) Search(ctx context.Context, query string, limit int) ([]domain.ScoredChunk, error) {
	if m.SearchFn != nil {
		return m.SearchFn(query, limit)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	words := strings.Fields(strings.ToLower(query))
	var out []domain.ScoredChunk
	for _, c := range m.chunks {
		text := strings.ToLower(c.Content)
		score := 0.0
		for _, w := range words {
			if strings.Contains(text, w) {
				score++
			}
		}
		if score > 0 {
			out = append(out, domain.ScoredChunk{Chunk: c, Score: score})
		}
	}
	sortScored(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockLexicalIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// MockVectorIndex is an exact cosine index kept in memory
type MockVectorIndex struct {
	mu     sync.RWMutex
	chunks map[string]*domain.Chunk

	UpsertErr error
	SearchErr error
}

// NewMockVectorIndex creates an empty MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{chunks: make(map[string]*domain.Chunk)}
}

func (m *MockVectorIndex) EnsureCollection(ctx context.Context, dimensions int) error {
	return nil
}

func (m *MockVectorIndex) Upsert(ctx context.Context, chunks []*domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	for _, c := range chunks {
		m.chunks[c.ID] = c
	}
	return nil
}

func (m *MockVectorIndex) Search(ctx context.Context, vector []float32, limit int) ([]domain.ScoredChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	out := make([]domain.ScoredChunk, 0, len(m.chunks))
	for _, c := range m.chunks {
		out = append(out, domain.ScoredChunk{Chunk: c, Score: cosine(vector, c.Embedding)})
	}
	sortScored(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockVectorIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.chunks {
		if c.DocumentID == documentID {
			delete(m.chunks, id)
		}
	}
	return nil
}

func (m *MockVectorIndex) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored vectors
func (m *MockVectorIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

func sortScored(s []domain.ScoredChunk) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].Chunk.Before(s[j].Chunk)
	})
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
