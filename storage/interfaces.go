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


package storage

import (
	"context"

	"github.com/poiesic/relayout/core"
)

// Repository holds the operations shared by every repository.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository. It does not close
	// the shared backend.
	Close() error
}

// DocumentRepository provides operations for managing processed documents.
type DocumentRepository interface {
	Repository
	// AddDocuments stores one or more documents.
	// A document with ID=0 gets core.DocumentID(category, layout).
	// Re-adding an existing ID replaces the stored document and keeps its
	// original InsertedAt.
	// Returns the documents with IDs and timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments updates existing documents.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs, together with their
	// name index entries.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// ListDocuments returns every document in a category ordered by name.
	// An empty category lists all documents.
	ListDocuments(ctx context.Context, category core.Category) ([]*core.Document, error)

	// FindDocumentByName finds a document by category and name.
	// Returns ErrNotFound if no matching document exists.
	FindDocumentByName(ctx context.Context, category core.Category, name string) (*core.Document, error)

	// ScanDocuments returns up to limit documents with IDs greater than
	// afterID, ordered by ID.
	ScanDocuments(ctx context.Context, afterID core.ID, limit int) ([]*core.Document, error)
}

// ChunkRepository provides operations for managing embedded document chunks.
type ChunkRepository interface {
	Repository
	// ReplaceChunks deletes every chunk of docID and stores chunks in its place.
	// Chunk DocumentId and Index fields are set from docID and slice order.
	ReplaceChunks(ctx context.Context, docID core.ID, chunks ...*core.Chunk) error

	// GetChunks returns the chunks of a document ordered by index.
	GetChunks(ctx context.Context, docID core.ID) ([]*core.Chunk, error)

	// DeleteChunks removes every chunk of a document. Missing chunks are not an error.
	DeleteChunks(ctx context.Context, docID core.ID) error

	// FindSimilar finds chunks similar to the given vector.
	// Returns chunks with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ChunkResult, error)
}

// CheckpointRepository persists rebuild progress.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for a processor type.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the checkpoint for a processor type.
	DeleteCheckpoint(ctx context.Context, processorType string) error
}
