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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/relayout/ai"
	"github.com/poiesic/relayout/core"
	"github.com/poiesic/relayout/render"
	"github.com/poiesic/relayout/storage"
)

// Pipeline ingests layout responses into the document store.
// Documents are processed concurrently on a worker pool.
type Pipeline struct {
	documentRepository storage.DocumentRepository
	pool               *ants.Pool
	transformer        *Transformer
	embedder           *chunkEmbedder
	outputDir          string
	renderer           render.Renderer
	renditionLocks     sync.Map // path -> *sync.Mutex
	logger             *slog.Logger

	// embedding settings, resolved once all options are applied
	chunkRepository storage.ChunkRepository
	aiEmbedder      ai.Embedder
	maxChunkRunes   int
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithEmbedder enables chunking and embedding of every stored document.
func WithEmbedder(chunkRepository storage.ChunkRepository, embedder ai.Embedder) Option {
	return func(p *Pipeline) error {
		if chunkRepository == nil {
			return ErrChunkRepositoryRequired
		}
		if embedder == nil {
			return ErrEmbedderRequired
		}
		p.chunkRepository = chunkRepository
		p.aiEmbedder = embedder
		return nil
	}
}

// WithMaxChunkRunes overrides DefaultMaxChunkRunes.
func WithMaxChunkRunes(maxRunes int) Option {
	return func(p *Pipeline) error {
		p.maxChunkRunes = maxRunes
		return nil
	}
}

// WithOutputDir writes a rendition of every document into dir, in a
// sub-folder per category, named after the document's normalized name.
func WithOutputDir(dir string, renderer render.Renderer) Option {
	return func(p *Pipeline) error {
		if renderer == nil {
			return ErrRendererRequired
		}
		p.outputDir = dir
		p.renderer = renderer
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(documentRepository storage.DocumentRepository, opts ...Option) (*Pipeline, error) {
	if documentRepository == nil {
		return nil, ErrDocumentRepositoryRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documentRepository: documentRepository,
		pool:               pool,
		logger:             slog.Default(),
		maxChunkRunes:      DefaultMaxChunkRunes,
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.logger = p.logger.With("component", "ingestion")
	p.transformer = NewTransformer(p.logger)

	if p.aiEmbedder != nil {
		embedder, err := newChunkEmbedder(p.chunkRepository, p.aiEmbedder, p.maxChunkRunes, p.logger)
		if err != nil {
			p.Release()
			return nil, err
		}
		p.embedder = embedder
	}

	return p, nil
}

// Failure records why one input could not be ingested.
type Failure struct {
	Name string
	Err  error
}

// Report summarizes an Ingest call.
type Report struct {
	Processed int              // Inputs stored successfully
	Failed    int              // Inputs that could not be stored
	Empty     int              // Stored inputs with no extracted text
	Chunks    int              // Chunks embedded across all documents
	Documents []*core.Document // Stored documents in input order
	Failures  []Failure
	Elapsed   time.Duration
}

// Ingest processes every input and waits for all of them to finish.
// Per-document failures are logged and reported, not returned; the error
// is reserved for the context being done before the batch completed.
func (p *Pipeline) Ingest(ctx context.Context, inputs ...Input) (*Report, error) {
	start := time.Now()
	results := make([]*core.Document, len(inputs))
	report := &Report{}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	fail := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		report.Failed++
		report.Failures = append(report.Failures, Failure{Name: name, Err: err})
	}

	for i, input := range inputs {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()

			doc, chunks, err := p.process(ctx, input)
			if err != nil {
				p.logger.Error("error ingesting document", "name", input.Name, "category", input.Category, "err", err)
				fail(input.Name, err)
				return
			}

			mu.Lock()
			defer mu.Unlock()
			results[i] = doc
			report.Processed++
			report.Chunks += chunks
			if doc.Stats.Empty() {
				report.Empty++
			}
		})
		if err != nil {
			wg.Done()
			fail(input.Name, err)
		}
	}
	wg.Wait()

	for _, doc := range results {
		if doc != nil {
			report.Documents = append(report.Documents, doc)
		}
	}
	report.Elapsed = time.Since(start)

	p.logger.Info("ingestion complete",
		"processed", report.Processed,
		"failed", report.Failed,
		"empty", report.Empty,
		"total", len(inputs))

	return report, ctx.Err()
}

// process ingests a single input and returns the stored document and the
// number of chunks embedded for it.
func (p *Pipeline) process(ctx context.Context, input Input) (*core.Document, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if input.Name == "" {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidInput, core.ErrEmptyName)
	}
	category, err := core.ParseCategory(string(input.Category))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w: %q", ErrInvalidInput, err, input.Category)
	}

	doc := &core.Document{
		Name:     input.Name,
		Category: category,
		Layout:   input.Layout,
		Metadata: make(map[string]string),
	}
	if input.Path != "" {
		doc.Metadata["source"] = filepath.Base(input.Path)
	}
	if err := p.transformer.Apply(doc); err != nil {
		return nil, 0, err
	}

	if _, err := p.documentRepository.AddDocuments(ctx, doc); err != nil {
		return nil, 0, err
	}

	p.logger.Info("processed document",
		"name", doc.Name,
		"category", doc.Category,
		"pages", doc.Stats.Pages,
		"layout_blocks", doc.Stats.LayoutBlocks,
		"text_length", doc.Stats.TextLength)
	if doc.Stats.Empty() {
		p.logger.Warn("no text extracted", "name", doc.Name)
	}

	chunks := 0
	if p.embedder != nil {
		if chunks, err = p.embedder.embed(ctx, doc); err != nil {
			return nil, 0, err
		}
	}

	if p.renderer != nil {
		if err := p.writeRendition(doc); err != nil {
			return nil, 0, err
		}
	}

	return doc, chunks, nil
}

// writeRendition writes the document to <out>/<Category>/<name><ext>. The file
// is named after the input stem, which is unique per (category, name) like the
// stored document, so distinct inputs never share a rendition path.
func (p *Pipeline) writeRendition(doc *core.Document) (err error) {
	dir := filepath.Join(p.outputDir, doc.Category.DirName())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, RenditionName(doc.Name)+p.renderer.Extension())

	mu, _ := p.renditionLocks.LoadOrStore(path, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	return p.renderer.Render(f, doc.Metadata[MetaProductName], doc.Blocks)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
