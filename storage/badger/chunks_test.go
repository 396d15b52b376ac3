package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/relayout/core"
)

func TestReplaceChunks(t *testing.T) {
	_, repo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	docID := core.ID(7)
	require.NoError(t, repo.ReplaceChunks(ctx, docID,
		&core.Chunk{Heading: "DOSAGE", Text: "one"},
		&core.Chunk{Heading: "DOSAGE", Text: "two"},
		&core.Chunk{Text: "three"},
	))

	chunks, err := repo.GetChunks(ctx, docID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, docID, c.DocumentId)
	}
	assert.Equal(t, "one", chunks[0].Text)

	// A second replace drops the old tail.
	require.NoError(t, repo.ReplaceChunks(ctx, docID, &core.Chunk{Text: "only"}))
	chunks, err = repo.GetChunks(ctx, docID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "only", chunks[0].Text)
}

func TestReplaceChunks_InvalidLeavesOldChunks(t *testing.T) {
	_, repo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	require.NoError(t, repo.ReplaceChunks(ctx, core.ID(1), &core.Chunk{Text: "keep"}))

	err = repo.ReplaceChunks(ctx, core.ID(1), &core.Chunk{Text: "fine"}, &core.Chunk{})
	assert.ErrorIs(t, err, core.ErrInvalidChunk)

	chunks, err := repo.GetChunks(ctx, core.ID(1))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "keep", chunks[0].Text)
}

func TestChunksAreScopedByDocument(t *testing.T) {
	_, repo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	require.NoError(t, repo.ReplaceChunks(ctx, core.ID(1), &core.Chunk{Text: "first"}))
	require.NoError(t, repo.ReplaceChunks(ctx, core.ID(2), &core.Chunk{Text: "second"}))

	require.NoError(t, repo.DeleteChunks(ctx, core.ID(1)))

	gone, err := repo.GetChunks(ctx, core.ID(1))
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := repo.GetChunks(ctx, core.ID(2))
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "second", kept[0].Text)
}
