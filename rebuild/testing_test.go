package rebuild

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poiesic/relayout/core"
	"github.com/poiesic/relayout/storage/badger"
)

const sampleLayout = `{
  "pages": [{}],
  "document_layout": {"blocks": [
    {"text_block": {"text": "Dosage", "type_": "heading-1", "blocks": [
      {"text_block": {"text": "Take one tablet %d.", "type_": "paragraph"}}
    ]}}
  ]}
}`

type testStore struct {
	docs        *badger.DocumentRepository
	chunks      *badger.ChunkRepository
	checkpoints *badger.CheckpointRepository
}

func setupStore(t *testing.T) testStore {
	t.Helper()
	docs, chunks, checkpoints, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return testStore{docs: docs, chunks: chunks, checkpoints: checkpoints}
}

// addStale stores n documents whose derived fields are out of date with
// their layouts.
func addStale(t *testing.T, store testStore, n int) []*core.Document {
	t.Helper()
	docs := make([]*core.Document, n)
	for i := range docs {
		docs[i] = &core.Document{
			Name:     fmt.Sprintf("doc-%02d", i),
			Category: core.CategoryPharma,
			Layout:   []byte(fmt.Sprintf(sampleLayout, i)),
			Blocks:   []core.ContentBlock{core.Paragraph("stale")},
		}
	}
	_, err := store.docs.AddDocuments(context.Background(), docs...)
	require.NoError(t, err)
	return docs
}
