package rebuild

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/relayout/ai"
	"github.com/poiesic/relayout/core"
	"github.com/poiesic/relayout/ingestion"
	"github.com/poiesic/relayout/storage"
)

// BatchResult counts what happened to one batch.
type BatchResult struct {
	Rebuilt int // Documents re-derived and stored
	Skipped int // Documents whose layout could not be decoded
	Chunks  int // Chunks embedded
}

// BatchProcessor re-derives a batch of documents and, when an embedder is
// set, replaces their chunks.
type BatchProcessor struct {
	docs           storage.DocumentRepository
	chunks         storage.ChunkRepository
	embedder       ai.Embedder
	transformer    *ingestion.Transformer
	concurrency    int
	maxChunkRunes  int
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// NewBatchProcessor creates a new batch processor. embedder may be nil, in
// which case chunks are left untouched.
func NewBatchProcessor(docs storage.DocumentRepository, chunks storage.ChunkRepository, embedder ai.Embedder, config *Config, logger *slog.Logger) *BatchProcessor {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		docs:           docs,
		chunks:         chunks,
		embedder:       embedder,
		transformer:    ingestion.NewTransformer(logger),
		concurrency:    max(config.Concurrency, 1),
		maxChunkRunes:  config.MaxChunkRunes,
		maxRetries:     config.MaxRetries,
		retryBaseDelay: config.RetryDelay,
		logger:         logger,
	}
}

// Process re-derives docs from their stored layouts and saves them.
// A document whose layout no longer decodes is logged and skipped.
func (bp *BatchProcessor) Process(ctx context.Context, docs []*core.Document) (BatchResult, error) {
	var result BatchResult
	if len(docs) == 0 {
		return result, nil
	}

	rebuilt := make([]*core.Document, 0, len(docs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)
	for _, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := bp.transformer.Apply(doc); err != nil {
				bp.logger.Warn("skipping document", "name", doc.Name, "id", doc.Id, "err", err)
				mu.Lock()
				result.Skipped++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			rebuilt = append(rebuilt, doc)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	if len(rebuilt) == 0 {
		return result, nil
	}

	if _, err := bp.docs.UpdateDocuments(ctx, rebuilt...); err != nil {
		return result, fmt.Errorf("failed to update documents: %w", err)
	}
	result.Rebuilt = len(rebuilt)

	if bp.embedder != nil {
		n, err := bp.embed(ctx, rebuilt)
		if err != nil {
			return result, err
		}
		result.Chunks = n
	}
	return result, nil
}

// embed cuts every document into chunks, embeds all of them in one call and
// replaces each document's stored chunks.
func (bp *BatchProcessor) embed(ctx context.Context, docs []*core.Document) (int, error) {
	perDoc := make([][]*core.Chunk, len(docs))
	var texts []string
	for i, doc := range docs {
		if doc.Stats.Empty() {
			continue
		}
		perDoc[i] = ingestion.Sections(doc.Blocks, bp.maxChunkRunes)
		for _, chunk := range perDoc[i] {
			texts = append(texts, ingestion.EmbeddingText(chunk))
		}
	}

	var vectors [][]float32
	if len(texts) > 0 {
		err := RetryWithBackoff(ctx, func() error {
			var err error
			vectors, err = bp.embedder.EmbedTexts(ctx, texts)
			return err
		}, bp.maxRetries, bp.retryBaseDelay)
		if err != nil {
			return 0, fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
		}
		if len(vectors) != len(texts) {
			return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(vectors))
		}
	}

	next := 0
	for i, doc := range docs {
		for _, chunk := range perDoc[i] {
			chunk.Vector = ai.NormalizeVector(vectors[next])
			next++
		}
		if err := bp.chunks.ReplaceChunks(ctx, doc.Id, perDoc[i]...); err != nil {
			return 0, fmt.Errorf("failed to store chunks for %s: %w", doc.Name, err)
		}
	}
	return next, nil
}
