package index

import (
	"context"
	"fmt"
	"testing"

	"doc-qa-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = "text-embedding-004"

func entry(id string, vec ...float32) model.IndexEntry {
	return model.IndexEntry{
		Chunk:        model.Chunk{ID: id, Text: "text " + id},
		Vector:       vec,
		ModelVersion: testModel,
	}
}

func TestMemory_SearchOrdersByScore(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(testModel)
	require.NoError(t, idx.Add(ctx, []model.IndexEntry{
		entry("far", 0, 1),
		entry("near", 1, 0),
		entry("mid", 1, 1),
	}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 4)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "near", hits[0].Chunk.ID)
	assert.Equal(t, "mid", hits[1].Chunk.ID)
	assert.Equal(t, "far", hits[2].Chunk.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestMemory_TiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(testModel)
	var entries []model.IndexEntry
	for i := 0; i < 10; i++ {
		entries = append(entries, entry(fmt.Sprintf("c%d", i), 2, 2))
	}
	require.NoError(t, idx.Add(ctx, entries))

	for run := 0; run < 5; run++ {
		hits, err := idx.Search(ctx, []float32{1, 1}, 4)
		require.NoError(t, err)
		require.Len(t, hits, 4)
		for i, h := range hits {
			assert.Equal(t, fmt.Sprintf("c%d", i), h.Chunk.ID)
		}
	}
}

func TestMemory_KLargerThanIndex(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(testModel)
	require.NoError(t, idx.Add(ctx, []model.IndexEntry{entry("only", 1, 0)}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 4)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	assert.Equal(t, 1, idx.Len())
}

func TestMemory_EmptyAndZeroK(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(testModel)
	hits, err := idx.Search(ctx, []float32{1, 0}, 4)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, idx.Add(ctx, []model.IndexEntry{entry("a", 1, 0)}))
	hits, err = idx.Search(ctx, []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemory_RejectsOtherModel(t *testing.T) {
	idx := NewMemory(testModel)
	e := entry("a", 1, 0)
	e.ModelVersion = "other-model"
	err := idx.Add(context.Background(), []model.IndexEntry{e})
	assert.ErrorIs(t, err, model.ErrEmbeddingMismatch)
	assert.Equal(t, 0, idx.Len())
}

func TestMemory_DimensionChecks(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(testModel)
	err := idx.Add(ctx, []model.IndexEntry{entry("a", 1, 0), entry("b", 1, 0, 0)})
	assert.ErrorIs(t, err, model.ErrEmbeddingMismatch)
	assert.Equal(t, 0, idx.Len(), "rejected batch must not be partially stored")

	require.NoError(t, idx.Add(ctx, []model.IndexEntry{entry("a", 1, 0)}))
	assert.Equal(t, 2, idx.Dimension())

	_, err = idx.Search(ctx, []float32{1, 0, 0}, 4)
	assert.ErrorIs(t, err, model.ErrEmbeddingMismatch)
}

func TestMemory_ZeroVectorScoresZero(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(testModel)
	require.NoError(t, idx.Add(ctx, []model.IndexEntry{entry("zero", 0, 0), entry("one", 1, 0)}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, "one", hits[0].Chunk.ID)
	assert.Equal(t, 0.0, hits[1].Score)
}

func TestMemoryFactory(t *testing.T) {
	idx, err := MemoryFactory()("session-1", testModel)
	require.NoError(t, err)
	assert.Equal(t, testModel, idx.Model())
}
