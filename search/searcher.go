package search

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/relayout/ai"
	"github.com/poiesic/relayout/core"
	"github.com/poiesic/relayout/storage"
)

const (
	// DefaultMinSimilarity is the cosine threshold below which chunks are ignored.
	DefaultMinSimilarity = 0.60

	// VerbatimBoost is added to a chunk containing every query word.
	VerbatimBoost = 0.3

	// candidateFactor widens the semantic fetch so boosted chunks just under
	// the cut can still be ranked in.
	candidateFactor = 3
)

// Searcher ranks stored chunks against free-text queries.
type Searcher struct {
	chunkRepository storage.ChunkRepository
	embedder        ai.Embedder
	minSimilarity   float32
	logger          *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity overrides DefaultMinSimilarity.
func WithMinSimilarity(minSimilarity float32) Option {
	return func(s *Searcher) error {
		if minSimilarity < -1 || minSimilarity > 1 {
			return fmt.Errorf("min similarity must be within [-1, 1], got %v", minSimilarity)
		}
		s.minSimilarity = minSimilarity
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(chunkRepository storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		chunkRepository: chunkRepository,
		embedder:        embedder,
		minSimilarity:   DefaultMinSimilarity,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// FindSimilar searches for chunks similar to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.ChunkResult, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor is FindSimilar with callbacks at each stage.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.ChunkResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if maxHits < 1 {
		return nil, fmt.Errorf("%w: maxHits must be positive, got %d", storage.ErrInvalidQuery, maxHits)
	}

	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	candidates, err := s.chunkRepository.FindSimilar(ctx, embedding, s.minSimilarity, maxHits*candidateFactor)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}
	monitor.AfterSemanticSearch(candidates)

	queryWords := tokenizeAndFilter(query)
	results := make([]*core.ChunkResult, 0, len(candidates))
	for _, candidate := range candidates {
		score := candidate.Score
		if containsAllQueryWords(candidate.Chunk.Heading+" "+candidate.Chunk.Text, queryWords) {
			score += VerbatimBoost
			monitor.VerbatimHit(candidate.Chunk)
		}
		results = append(results, &core.ChunkResult{Chunk: candidate.Chunk, Score: score})
	}

	slices.SortStableFunc(results, func(a, b *core.ChunkResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}

	s.logger.Debug("search complete", "query", query, "candidates", len(candidates), "results", len(results))
	monitor.Finish(results)

	return results, nil
}
