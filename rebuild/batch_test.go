package rebuild

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/relayout/ai/mock"
	"github.com/poiesic/relayout/core"
)

func testConfig() *Config {
	config := DefaultConfig()
	config.RetryDelay = time.Millisecond
	return config
}

func TestBatchProcessor_RederivesDocuments(t *testing.T) {
	store := setupStore(t)
	docs := addStale(t, store, 3)
	ctx := context.Background()

	bp := NewBatchProcessor(store.docs, store.chunks, nil, testConfig(), nil)
	result, err := bp.Process(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Rebuilt: 3}, result)

	stored, err := store.docs.GetDocuments(ctx, docs[0].Id)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Len(t, stored[0].Blocks, 2)
	assert.Equal(t, core.BlockHeading, stored[0].Blocks[0].Kind)
	assert.Equal(t, "Take one tablet 0.", stored[0].Blocks[1].Text)
	assert.Equal(t, 1, stored[0].Stats.Headings)
	assert.Equal(t, 1, stored[0].Stats.Paragraphs)
	assert.NotEmpty(t, stored[0].Annotated)

	chunks, err := store.chunks.GetChunks(ctx, docs[0].Id)
	require.NoError(t, err)
	assert.Empty(t, chunks, "no embedder means no chunks")
}

func TestBatchProcessor_EmbedsChunks(t *testing.T) {
	store := setupStore(t)
	docs := addStale(t, store, 2)
	ctx := context.Background()

	embedder := mock.NewMockEmbedder()
	bp := NewBatchProcessor(store.docs, store.chunks, embedder, testConfig(), nil)
	result, err := bp.Process(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rebuilt)
	assert.Equal(t, 2, result.Chunks)
	assert.Equal(t, 1, embedder.CallCount(), "whole batch is embedded in one call")

	for _, doc := range docs {
		chunks, err := store.chunks.GetChunks(ctx, doc.Id)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Len(t, chunks[0].Vector, mock.DefaultDimensions)
		assert.NotEmpty(t, chunks[0].Heading)
	}
}

func TestBatchProcessor_SkipsBadLayout(t *testing.T) {
	store := setupStore(t)
	docs := addStale(t, store, 1)
	ctx := context.Background()

	bad := &core.Document{Name: "broken", Category: core.CategoryHerbal, Layout: []byte("not json")}
	_, err := store.docs.AddDocuments(ctx, bad)
	require.NoError(t, err)

	bp := NewBatchProcessor(store.docs, store.chunks, nil, testConfig(), nil)
	result, err := bp.Process(ctx, append(docs, bad))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rebuilt)
	assert.Equal(t, 1, result.Skipped)
}

func TestBatchProcessor_RetriesEmbedding(t *testing.T) {
	store := setupStore(t)
	docs := addStale(t, store, 1)

	embedder := mock.NewMockEmbedder()
	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls < 2 {
			return nil, errors.New("service unavailable")
		}
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.Vector(text, 8)
		}
		return vectors, nil
	}

	bp := NewBatchProcessor(store.docs, store.chunks, embedder, testConfig(), nil)
	result, err := bp.Process(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Chunks)
	assert.Equal(t, 2, calls)
}

func TestBatchProcessor_EmbeddingFails(t *testing.T) {
	store := setupStore(t)
	docs := addStale(t, store, 1)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("service unavailable")
	}

	config := testConfig()
	config.MaxRetries = 2
	bp := NewBatchProcessor(store.docs, store.chunks, embedder, config, nil)
	_, err := bp.Process(context.Background(), docs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, embedder.CallCount())
}

func TestBatchProcessor_Empty(t *testing.T) {
	store := setupStore(t)
	bp := NewBatchProcessor(store.docs, store.chunks, nil, nil, nil)
	result, err := bp.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, result)
}
