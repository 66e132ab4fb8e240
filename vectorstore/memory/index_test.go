package memory

import (
	"context"
	"testing"

	"github.com/poiesic/stancewatch/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertIdempotent(t *testing.T) {
	index := New()
	ctx := context.Background()

	points := []vectorstore.Point{
		{ID: "a-0", Vector: []float32{1, 0}},
		{ID: "a-1", Vector: []float32{0, 1}},
	}
	require.NoError(t, index.Upsert(ctx, points))
	require.NoError(t, index.Upsert(ctx, points))

	assert.Equal(t, 2, index.Len())
}

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	index := New()
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, []vectorstore.Point{
		{ID: "exact", Vector: []float32{1, 0}, Payload: vectorstore.Payload{Snippet: "exact"}},
		{ID: "close", Vector: []float32{0.9, 0.1}},
		{ID: "orthogonal", Vector: []float32{0, 1}},
	}))

	hits, err := index.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "exact", hits[0].ID)
	assert.Equal(t, "close", hits[1].ID)
	assert.Equal(t, "exact", hits[0].Payload.Snippet)
}

func TestEnsureCollectionDimMismatch(t *testing.T) {
	index := New()
	ctx := context.Background()

	require.NoError(t, index.EnsureCollection(ctx, 3))
	require.NoError(t, index.EnsureCollection(ctx, 3))
	assert.Error(t, index.EnsureCollection(ctx, 4))
	assert.Error(t, index.EnsureCollection(ctx, 0))
}
