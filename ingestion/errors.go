package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when embedding is enabled without a chunk repository.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrEmbedderRequired is returned when embedding is enabled without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrRendererRequired is returned when an output directory is set without a renderer.
	ErrRendererRequired = errors.New("renderer required")

	// ErrInvalidInput is returned for an input without a name or category.
	ErrInvalidInput = errors.New("invalid input")
)
