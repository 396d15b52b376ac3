package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/relayout/ai"
	"github.com/poiesic/relayout/core"
	"github.com/poiesic/relayout/storage"
)

// chunkEmbedder cuts documents into sections, embeds them and replaces the
// document's stored chunks.
type chunkEmbedder struct {
	chunkRepository storage.ChunkRepository
	embedder        ai.Embedder
	maxRunes        int
	logger          *slog.Logger
}

func newChunkEmbedder(chunkRepository storage.ChunkRepository, embedder ai.Embedder, maxRunes int, logger *slog.Logger) (*chunkEmbedder, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &chunkEmbedder{
		chunkRepository: chunkRepository,
		embedder:        embedder,
		maxRunes:        maxRunes,
		logger:          logger.With("processor", "embeddings"),
	}, nil
}

// embed returns the number of chunks stored for doc. Documents without
// extracted text get their chunks cleared.
func (ce *chunkEmbedder) embed(ctx context.Context, doc *core.Document) (int, error) {
	if doc.Stats.Empty() {
		return 0, ce.chunkRepository.DeleteChunks(ctx, doc.Id)
	}

	chunks := Sections(doc.Blocks, ce.maxRunes)
	if len(chunks) == 0 {
		return 0, ce.chunkRepository.DeleteChunks(ctx, doc.Id)
	}
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = EmbeddingText(chunk)
	}

	ce.logger.Debug("generating embeddings for document", "document", doc.Name, "chunks", len(chunks))
	vectors, err := ce.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed %s: %w", doc.Name, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(chunks), len(vectors))
	}

	for i := range chunks {
		chunks[i].Vector = ai.NormalizeVector(vectors[i])
	}

	if err := ce.chunkRepository.ReplaceChunks(ctx, doc.Id, chunks...); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// EmbeddingText is the text sent to the embedder for a chunk: its heading
// followed by its body.
func EmbeddingText(chunk *core.Chunk) string {
	if chunk.Heading == "" || chunk.Heading == chunk.Text {
		return chunk.Text
	}
	return chunk.Heading + "\n" + chunk.Text
}
