package badger

// NewMemoryRepositories creates in-memory document, chunk and checkpoint
// repositories sharing one backend, for testing.
// Caller must close the backend when done.
func NewMemoryRepositories() (*DocumentRepository, *ChunkRepository, *CheckpointRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return NewDocumentRepository(backend),
		NewChunkRepository(backend),
		NewCheckpointRepository(backend),
		backend,
		nil
}
