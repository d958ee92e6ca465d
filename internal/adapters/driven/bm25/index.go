// Package bm25 provides an in-memory Okapi BM25 lexical index.
package bm25

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.LexicalIndex = (*Index)(nil)

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Tokenize lowercases text and splits it into letter/digit runs
func Tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

// Params are the BM25 tuning constants
type Params struct {
	K1 float64
	B  float64
	// Epsilon floors negative IDF values at Epsilon * average IDF
	Epsilon float64
}

// DefaultParams returns the usual Okapi constants
func DefaultParams() Params {
	return Params{K1: 1.5, B: 0.75, Epsilon: 0.25}
}

// Index is a BM25 index over chunks. Searches read an immutable
// snapshot; writes build a new snapshot and swap it in, so a search
// never waits on an in-flight ingest.
type Index struct {
	params Params

	mu     sync.Mutex // serializes writers
	chunks map[string]*domain.Chunk

	snap atomic.Pointer[snapshot]
}

type document struct {
	chunk  *domain.Chunk
	tf     map[string]int
	length int
}

type snapshot struct {
	docs  []document
	idf   map[string]float64
	avgdl float64
}

// New creates an empty index
func New(params Params) *Index {
	idx := &Index{
		params: params,
		chunks: make(map[string]*domain.Chunk),
	}
	idx.snap.Store(&snapshot{idf: map[string]float64{}})
	return idx
}

func (i *Index) Add(ctx context.Context, chunks []*domain.Chunk) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, c := range chunks {
		i.chunks[c.ID] = c
	}
	i.rebuild()
	return nil
}

func (i *Index) Replace(ctx context.Context, chunks []*domain.Chunk) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.chunks = make(map[string]*domain.Chunk, len(chunks))
	for _, c := range chunks {
		i.chunks[c.ID] = c
	}
	i.rebuild()
	return nil
}

func (i *Index) Remove(ctx context.Context, documentID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for id, c := range i.chunks {
		if c.DocumentID == documentID {
			delete(i.chunks, id)
		}
	}
	i.rebuild()
	return nil
}

func (i *Index) Len() int {
	return len(i.snap.Load().docs)
}

// Search scores every chunk against the query and returns the best
// limit chunks with a positive score. Equal scores keep ingestion order.
func (i *Index) Search(ctx context.Context, query string, limit int) ([]domain.ScoredChunk, error) {
	s := i.snap.Load()
	terms := Tokenize(query)
	if len(terms) == 0 || len(s.docs) == 0 {
		return []domain.ScoredChunk{}, nil
	}

	results := make([]domain.ScoredChunk, 0)
	for _, d := range s.docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score := s.score(d, terms, i.params)
		if score > 0 {
			results = append(results, domain.ScoredChunk{Chunk: d.chunk, Score: score})
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *snapshot) score(d document, terms []string, p Params) float64 {
	var total float64
	norm := p.K1 * (1 - p.B + p.B*float64(d.length)/s.avgdl)
	for _, t := range terms {
		tf := float64(d.tf[t])
		if tf == 0 {
			continue
		}
		total += s.idf[t] * tf * (p.K1 + 1) / (tf + norm)
	}
	return total
}

// rebuild computes a fresh snapshot. Caller holds mu.
func (i *Index) rebuild() {
	ordered := make([]*domain.Chunk, 0, len(i.chunks))
	for _, c := range i.chunks {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(a, b int) bool { return ordered[a].Before(ordered[b]) })

	s := &snapshot{
		docs: make([]document, 0, len(ordered)),
		idf:  make(map[string]float64),
	}
	df := make(map[string]int)
	var totalLen int
	for _, c := range ordered {
		tokens := Tokenize(c.Content)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for tok := range tf {
			df[tok]++
		}
		totalLen += len(tokens)
		s.docs = append(s.docs, document{chunk: c, tf: tf, length: len(tokens)})
	}
	if len(s.docs) == 0 {
		i.snap.Store(s)
		return
	}
	s.avgdl = float64(totalLen) / float64(len(s.docs))
	if s.avgdl == 0 {
		s.avgdl = 1
	}

	n := float64(len(s.docs))
	var idfSum float64
	for tok, freq := range df {
		v := math.Log((n - float64(freq) + 0.5) / (float64(freq) + 0.5))
		s.idf[tok] = v
		idfSum += v
	}
	floor := i.params.Epsilon * idfSum / float64(len(df))
	// Terms present in most chunks still count a little
	if floor <= 0 {
		floor = i.params.Epsilon
	}
	for tok, v := range s.idf {
		if v <= 0 {
			s.idf[tok] = floor
		}
	}
	i.snap.Store(s)
}
