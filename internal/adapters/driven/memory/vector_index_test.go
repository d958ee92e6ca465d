package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

func TestVectorIndex_Search(t *testing.T) {
	ctx := context.Background()
	idx := NewVectorIndex()
	require.NoError(t, idx.EnsureCollection(ctx, 2))
	require.NoError(t, idx.Upsert(ctx, []*domain.Chunk{
		{ID: "a", DocumentID: "d1", DocumentSeq: 1, Embedding: []float32{1, 0}},
		{ID: "b", DocumentID: "d1", DocumentSeq: 1, Position: 1, Embedding: []float32{0.7, 0.7}},
		{ID: "c", DocumentID: "d2", DocumentSeq: 2, Embedding: []float32{0, 1}},
		{ID: "no-vector", DocumentID: "d2", DocumentSeq: 2, Position: 1},
	}))
	assert.Equal(t, 3, idx.Len())

	res, err := idx.Search(ctx, []float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "a", res[0].Chunk.ID)
	assert.Equal(t, "b", res[1].Chunk.ID)
	assert.InDelta(t, 0.995, res[0].Score, 0.01)
}

func TestVectorIndex_TiesUseIngestionOrder(t *testing.T) {
	ctx := context.Background()
	idx := NewVectorIndex()
	require.NoError(t, idx.Upsert(ctx, []*domain.Chunk{
		{ID: "late", DocumentID: "d2", DocumentSeq: 2, Embedding: []float32{1, 1}},
		{ID: "early", DocumentID: "d1", DocumentSeq: 1, Embedding: []float32{2, 2}},
	}))

	res, err := idx.Search(ctx, []float32{1, 1}, 10)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "early", res[0].Chunk.ID)
}

func TestVectorIndex_DeleteByDocument(t *testing.T) {
	ctx := context.Background()
	idx := NewVectorIndex()
	require.NoError(t, idx.Upsert(ctx, []*domain.Chunk{
		{ID: "a", DocumentID: "d1", Embedding: []float32{1}},
		{ID: "b", DocumentID: "d2", Embedding: []float32{1}},
	}))
	require.NoError(t, idx.DeleteByDocument(ctx, "d1"))

	res, err := idx.Search(ctx, []float32{1}, 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "b", res[0].Chunk.ID)
}
