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


// Package relayout turns OCR layout trees into annotated text streams and
// typed content blocks, and keeps the results in an embedded store.
//
// Store is the entry point for applications: it opens the database and
// hands out pipelines, searchers and rebuilders wired to it.
package relayout

import (
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/relayout/ai"
	"github.com/poiesic/relayout/ai/openai"
	"github.com/poiesic/relayout/ingestion"
	"github.com/poiesic/relayout/rebuild"
	"github.com/poiesic/relayout/search"
	"github.com/poiesic/relayout/storage"
	"github.com/poiesic/relayout/storage/badger"
)

// ErrNoEmbedder is returned by operations that need an embedding service
// when the store was opened without one.
var ErrNoEmbedder = errors.New("store has no embedder")

type Store struct {
	backend        *badger.Backend
	documentRepo   storage.DocumentRepository
	chunkRepo      storage.ChunkRepository
	checkpointRepo storage.CheckpointRepository
	embedder       ai.Embedder
	logger         *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	aiConfig *ai.Config
	embedder ai.Embedder
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig connects the store to an OpenAI-compatible embedding service.
func WithAIConfig(config *ai.Config) StoreOption {
	return func(o *storeOptions) {
		o.aiConfig = config
	}
}

// WithEmbedder uses embedder directly. It takes precedence over WithAIConfig.
func WithEmbedder(embedder ai.Embedder) StoreOption {
	return func(o *storeOptions) {
		o.embedder = embedder
	}
}

// InMemory keeps the database in memory; the path is ignored.
func InMemory() StoreOption {
	return func(o *storeOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger handed to pipelines and searchers.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// Open opens (creating if needed) the database at filePath. Without
// WithAIConfig or WithEmbedder the store works without embeddings: chunks
// are not produced and NewSearcher fails.
func Open(filePath string, opts ...StoreOption) (*Store, error) {
	options := &storeOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	embedder := options.embedder
	if embedder == nil && options.aiConfig != nil {
		if err := options.aiConfig.Validate(); err != nil {
			return nil, err
		}
		var err error
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	return &Store{
		backend:        backend,
		documentRepo:   badger.NewDocumentRepository(backend),
		chunkRepo:      badger.NewChunkRepository(backend),
		checkpointRepo: badger.NewCheckpointRepository(backend),
		embedder:       embedder,
		logger:         options.logger,
	}, nil
}

func (s *Store) Close() error {
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (s *Store) DocumentRepository() storage.DocumentRepository {
	return s.documentRepo
}

func (s *Store) ChunkRepository() storage.ChunkRepository {
	return s.chunkRepo
}

func (s *Store) CheckpointRepository() storage.CheckpointRepository {
	return s.checkpointRepo
}

// Embedder returns the configured embedder, or nil.
func (s *Store) Embedder() ai.Embedder {
	return s.embedder
}

// NewPipeline returns an ingestion pipeline storing into this database.
// When the store has an embedder, documents are chunked and embedded.
// Caller must Release the pipeline.
func (s *Store) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{ingestion.WithLogger(s.logger)}
	if s.embedder != nil {
		base = append(base, ingestion.WithEmbedder(s.chunkRepo, s.embedder))
	}
	return ingestion.NewPipeline(s.documentRepo, append(base, opts...)...)
}

func (s *Store) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	if s.embedder == nil {
		return nil, ErrNoEmbedder
	}
	base := []search.Option{search.WithLogger(s.logger)}
	return search.NewSearcher(s.chunkRepo, s.embedder, append(base, opts...)...)
}

// NewRebuilder returns a rebuilder over every stored document. Chunks are
// re-embedded when the store has an embedder.
func (s *Store) NewRebuilder(config *rebuild.Config, progress io.Writer) (*rebuild.Rebuilder, error) {
	var chunks storage.ChunkRepository
	if s.embedder != nil {
		chunks = s.chunkRepo
	}
	return rebuild.NewRebuilder(s.documentRepo, chunks, s.checkpointRepo, s.embedder, config, progress)
}
