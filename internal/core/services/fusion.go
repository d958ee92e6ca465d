package services

import (
	"sort"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// DefaultRRFK is the reciprocal rank fusion damping constant.
const DefaultRRFK = 60

// FuseRRF merges ranked lexical and vector hits with reciprocal rank
// fusion. Each list a chunk appears in contributes 1/(rank+k), rank
// being 1-based. Ties go to the higher vector similarity, then to the
// earlier ingested chunk. FusedRank is set on the returned slice.
func FuseRRF(lexical, vector []domain.ScoredChunk, k int) []*domain.SearchResult {
	byID := make(map[string]*domain.SearchResult, len(lexical)+len(vector))
	get := func(c *domain.Chunk) *domain.SearchResult {
		r, ok := byID[c.ID]
		if !ok {
			r = &domain.SearchResult{Chunk: c}
			byID[c.ID] = r
		}
		return r
	}

	for rank, hit := range lexical {
		if hit.Chunk == nil {
			continue
		}
		r := get(hit.Chunk)
		if r.LexicalScore != nil {
			continue // first occurrence wins
		}
		score := hit.Score
		r.LexicalScore = &score
		r.FusedScore += 1.0 / float64(rank+1+k)
	}

	for rank, hit := range vector {
		if hit.Chunk == nil {
			continue
		}
		r := get(hit.Chunk)
		if r.VectorScore != nil {
			continue
		}
		score := hit.Score
		r.VectorScore = &score
		r.FusedScore += 1.0 / float64(rank+1+k)
	}

	results := make([]*domain.SearchResult, 0, len(byID))
	for _, r := range byID {
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.FusedScore != b.FusedScore {
			return a.FusedScore > b.FusedScore
		}
		av, bv := vectorOrFloor(a), vectorOrFloor(b)
		if av != bv {
			return av > bv
		}
		return a.Chunk.Before(b.Chunk)
	})

	for i, r := range results {
		r.FusedRank = i + 1
	}
	return results
}

// vectorOrFloor treats a missing vector score as lower than any cosine value.
func vectorOrFloor(r *domain.SearchResult) float64 {
	if r.VectorScore == nil {
		return -2
	}
	return *r.VectorScore
}
