package rebuild

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/relayout/ai/mock"
	"github.com/poiesic/relayout/core"
)

func TestNewRebuilder_Validation(t *testing.T) {
	store := setupStore(t)

	_, err := NewRebuilder(nil, nil, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)

	_, err = NewRebuilder(store.docs, nil, nil, mock.NewMockEmbedder(), nil, nil)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	r, err := NewRebuilder(store.docs, nil, nil, nil, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestRebuilder_NoDocuments(t *testing.T) {
	store := setupStore(t)
	var out bytes.Buffer

	r, err := NewRebuilder(store.docs, store.chunks, store.checkpoints, nil, testConfig(), &out)
	require.NoError(t, err)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Contains(t, out.String(), "No documents to rebuild")
}

func TestRebuilder_Run(t *testing.T) {
	store := setupStore(t)
	docs := addStale(t, store, 5)
	ctx := context.Background()

	config := testConfig()
	config.BatchSize = 2
	var out bytes.Buffer
	r, err := NewRebuilder(store.docs, store.chunks, store.checkpoints, mock.NewMockEmbedder(), config, &out)
	require.NoError(t, err)

	summary, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 5, summary.Rebuilt)
	assert.Equal(t, 5, summary.Chunks)
	assert.Zero(t, summary.Skipped)
	assert.Contains(t, out.String(), "Rebuilding 5 documents")
	assert.Contains(t, out.String(), "Rebuild complete")

	for _, doc := range docs {
		stored, err := store.docs.GetDocuments(ctx, doc.Id)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Len(t, stored[0].Blocks, 2)
	}

	checkpoint, err := store.checkpoints.LoadCheckpoint(ctx, ProcessorType)
	require.NoError(t, err)
	assert.Nil(t, checkpoint, "checkpoint is removed after a full run")
}

func TestRebuilder_Resume(t *testing.T) {
	store := setupStore(t)
	addStale(t, store, 4)
	ctx := context.Background()

	all, err := store.docs.ScanDocuments(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 4)

	require.NoError(t, store.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: ProcessorType,
		LastID:        all[1].Id,
	}))

	config := testConfig()
	config.Resume = true
	r, err := NewRebuilder(store.docs, nil, store.checkpoints, nil, config, nil)
	require.NoError(t, err)

	summary, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Rebuilt)

	// Documents before the checkpoint keep their stale blocks.
	first, err := store.docs.GetDocuments(ctx, all[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "stale", first[0].Blocks[0].Text)

	last, err := store.docs.GetDocuments(ctx, all[3].Id)
	require.NoError(t, err)
	assert.Len(t, last[0].Blocks, 2)
}

func TestRebuilder_IgnoresCheckpointWithoutResume(t *testing.T) {
	store := setupStore(t)
	addStale(t, store, 3)
	ctx := context.Background()

	all, err := store.docs.ScanDocuments(ctx, 0, 10)
	require.NoError(t, err)
	require.NoError(t, store.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: ProcessorType,
		LastID:        all[2].Id,
	}))

	r, err := NewRebuilder(store.docs, nil, store.checkpoints, nil, testConfig(), nil)
	require.NoError(t, err)

	summary, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Rebuilt)
}

func TestRebuilder_SkipsBadLayout(t *testing.T) {
	store := setupStore(t)
	addStale(t, store, 2)
	ctx := context.Background()

	_, err := store.docs.AddDocuments(ctx, &core.Document{
		Name:     "broken",
		Category: core.CategoryHerbal,
		Layout:   []byte("{"),
	})
	require.NoError(t, err)

	r, err := NewRebuilder(store.docs, store.chunks, nil, mock.NewMockEmbedder(), testConfig(), nil)
	require.NoError(t, err)

	summary, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Rebuilt)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Chunks)
}

func TestRebuilder_Cancelled(t *testing.T) {
	store := setupStore(t)
	addStale(t, store, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := NewRebuilder(store.docs, nil, nil, nil, testConfig(), nil)
	require.NoError(t, err)
	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
