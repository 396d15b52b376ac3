package relayout

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/relayout/ai"
	"github.com/poiesic/relayout/ai/mock"
	"github.com/poiesic/relayout/core"
	"github.com/poiesic/relayout/ingestion"
	"github.com/poiesic/relayout/rebuild"
)

const paracetamolLayout = `{
  "pages": [{}],
  "document_layout": {"blocks": [
    {"text_block": {"text": "Indications", "type_": "heading-1", "blocks": [
      {"text_block": {"text": "Brand name: Napa", "type_": "paragraph"}},
      {"text_block": {"text": "Relief of fever and mild pain.", "type_": "paragraph"}}
    ]}}
  ]}
}`

func TestOpen(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		store, err := Open(filepath.Join(t.TempDir(), "test_db"))
		require.NoError(t, err)
		defer store.Close()

		assert.NotNil(t, store.DocumentRepository())
		assert.NotNil(t, store.ChunkRepository())
		assert.NotNil(t, store.CheckpointRepository())
		assert.Nil(t, store.Embedder())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0o644))

		store, err := Open(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("invalid ai config", func(t *testing.T) {
		store, err := Open("", InMemory(), WithAIConfig(ai.NewConfig(ai.WithEmbeddingModel(""))))
		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("ai config builds an embedder", func(t *testing.T) {
		store, err := Open("", InMemory(), WithAIConfig(ai.DefaultConfig()))
		require.NoError(t, err)
		defer store.Close()
		assert.NotNil(t, store.Embedder())
	})
}

func TestStore_WithoutEmbedder(t *testing.T) {
	store, err := Open("", InMemory())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.NewSearcher()
	assert.ErrorIs(t, err, ErrNoEmbedder)

	pipeline, err := store.NewPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	report, err := pipeline.Ingest(context.Background(), ingestion.Input{
		Name:     "napa",
		Category: core.CategoryPharma,
		Layout:   []byte(paracetamolLayout),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Zero(t, report.Chunks)

	rebuilder, err := store.NewRebuilder(nil, nil)
	require.NoError(t, err)
	summary, err := rebuilder.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rebuilt)
}

func TestStore_IngestSearchRebuild(t *testing.T) {
	ctx := context.Background()
	store, err := Open("", InMemory(), WithEmbedder(mock.NewMockEmbedder()))
	require.NoError(t, err)
	defer store.Close()

	pipeline, err := store.NewPipeline(ingestion.WithPoolSize(2))
	require.NoError(t, err)
	defer pipeline.Release()

	report, err := pipeline.Ingest(ctx, ingestion.Input{
		Name:     "napa",
		Category: core.CategoryPharma,
		Layout:   []byte(paracetamolLayout),
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.Processed)
	require.Equal(t, 1, report.Chunks)

	doc, err := store.DocumentRepository().FindDocumentByName(ctx, core.CategoryPharma, "napa")
	require.NoError(t, err)
	assert.Equal(t, "Napa", doc.Metadata[ingestion.MetaProductName])

	searcher, err := store.NewSearcher()
	require.NoError(t, err)

	// The mock embedder is deterministic, so embedding the stored chunk's
	// own text finds it with a perfect score.
	chunks, err := store.ChunkRepository().GetChunks(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	results, err := searcher.FindSimilar(ctx, ingestion.EmbeddingText(chunks[0]), 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, doc.Id, results[0].Chunk.DocumentId)

	config := rebuild.DefaultConfig()
	config.RetryDelay = 0
	rebuilder, err := store.NewRebuilder(config, nil)
	require.NoError(t, err)
	summary, err := rebuilder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rebuilt)
	assert.Equal(t, 1, summary.Chunks)
}
