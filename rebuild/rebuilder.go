// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package rebuild

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/relayout/ai"
	"github.com/poiesic/relayout/core"
	"github.com/poiesic/relayout/storage"
)

// ProcessorType is the checkpoint key used by Rebuilder.
const ProcessorType = "rebuild"

// Config holds configuration for a rebuild run.
type Config struct {
	// BatchSize is the number of documents fetched and stored together
	BatchSize int

	// Concurrency is the number of documents transformed in parallel
	Concurrency int

	// MaxChunkRunes bounds chunk size when re-embedding
	MaxChunkRunes int

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for embedding calls
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Resume continues after the last saved checkpoint instead of starting over
	Resume bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		Concurrency:    4,
		MaxChunkRunes:  0,
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Summary describes a finished run.
type Summary struct {
	Total   int
	Rebuilt int
	Skipped int
	Chunks  int
	Elapsed time.Duration
}

// Rebuilder re-derives every stored document, optionally re-embedding it.
type Rebuilder struct {
	docs        storage.DocumentRepository
	checkpoints storage.CheckpointRepository
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	iterator    *DocumentIterator
	logger      *slog.Logger
}

// NewRebuilder creates a new rebuilder.
// checkpoints may be nil to disable checkpointing; chunks and embedder may
// both be nil to leave chunks untouched.
// progress: where to write progress output (typically os.Stderr)
func NewRebuilder(
	docs storage.DocumentRepository,
	chunks storage.ChunkRepository,
	checkpoints storage.CheckpointRepository,
	embedder ai.Embedder,
	config *Config,
	progress io.Writer,
) (*Rebuilder, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if embedder != nil && chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	logger := slog.Default().With("component", "rebuilder")
	return &Rebuilder{
		docs:        docs,
		checkpoints: checkpoints,
		config:      config,
		progress:    progress,
		processor:   NewBatchProcessor(docs, chunks, embedder, config, logger),
		iterator:    NewDocumentIterator(docs, config.BatchSize),
		logger:      logger,
	}, nil
}

// Run rebuilds every document after the resume point. The checkpoint is
// saved after each batch and removed once the run completes.
func (r *Rebuilder) Run(ctx context.Context) (*Summary, error) {
	afterID, err := r.resumePoint(ctx)
	if err != nil {
		return nil, err
	}

	total, err := r.iterator.Count(ctx, afterID)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	summary := &Summary{Total: total}
	if total == 0 {
		fmt.Fprintf(r.progress, "No documents to rebuild\n")
		return summary, nil
	}

	fmt.Fprintf(r.progress, "Rebuilding %d documents (batch size: %d)\n", total, r.iterator.batchSize)

	tracker := NewProgressTracker(r.progress, "documents", total, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, afterID, func(docs []*core.Document) error {
		result, err := r.processor.Process(ctx, docs)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		summary.Rebuilt += result.Rebuilt
		summary.Skipped += result.Skipped
		summary.Chunks += result.Chunks

		if err := r.saveCheckpoint(ctx, docs[len(docs)-1].Id); err != nil {
			return err
		}
		tracker.Increment(len(docs))
		return nil
	})
	if err != nil {
		return summary, err
	}

	tracker.Finish()
	if r.checkpoints != nil {
		if err := r.checkpoints.DeleteCheckpoint(ctx, ProcessorType); err != nil {
			return summary, err
		}
	}

	summary.Elapsed = tracker.Elapsed()
	fmt.Fprintf(r.progress, "Rebuild complete. Rebuilt %d documents (%d skipped, %d chunks) in %v\n",
		summary.Rebuilt, summary.Skipped, summary.Chunks, summary.Elapsed.Round(time.Millisecond))
	r.logger.Info("rebuild complete", "rebuilt", summary.Rebuilt, "skipped", summary.Skipped, "chunks", summary.Chunks)

	return summary, nil
}

func (r *Rebuilder) resumePoint(ctx context.Context) (core.ID, error) {
	if !r.config.Resume || r.checkpoints == nil {
		return 0, nil
	}
	checkpoint, err := r.checkpoints.LoadCheckpoint(ctx, ProcessorType)
	if err != nil {
		return 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if checkpoint == nil {
		return 0, nil
	}
	r.logger.Info("resuming rebuild", "after_id", checkpoint.LastID, "saved_at", checkpoint.UpdatedAt)
	return checkpoint.LastID, nil
}

func (r *Rebuilder) saveCheckpoint(ctx context.Context, lastID core.ID) error {
	if r.checkpoints == nil {
		return nil
	}
	return r.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{ProcessorType: ProcessorType, LastID: lastID})
}
