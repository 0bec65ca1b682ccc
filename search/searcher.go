package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/measurit/ai"
	"github.com/poiesic/measurit/core"
	"github.com/poiesic/measurit/storage"
)

// Searcher finds measurements whose embeddings are similar to a query
// vector. Vectors are stored unit-normalized, so inner product equals
// cosine similarity.
type Searcher struct {
	repo     storage.MeasurementRepository
	embedder ai.Embedder
	logger   *slog.Logger
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) SearcherOption {
	return func(s *Searcher) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// WithEmbedder sets the embedder used by SearchText.
func WithEmbedder(embedder ai.Embedder) SearcherOption {
	return func(s *Searcher) {
		s.embedder = embedder
	}
}

// NewSearcher creates a new similarity searcher.
func NewSearcher(repo storage.MeasurementRepository, opts ...SearcherOption) (*Searcher, error) {
	if repo == nil {
		return nil, ErrMeasurementRepositoryRequired
	}

	s := &Searcher{
		repo:   repo,
		logger: slog.Default().With("component", "searcher"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search returns every measurement whose similarity to the query vector is
// strictly above the threshold, most similar first. A row scoring exactly
// at the threshold is excluded. There is no implicit result limit; the
// caller truncates if it wants fewer.
func (s *Searcher) Search(ctx context.Context, queryVector []float32, threshold float32) ([]*core.SearchResult, error) {
	query := core.NormalizeUnit(queryVector)

	results, err := s.repo.FindSimilar(ctx, query, threshold)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("similarity search complete", "threshold", threshold, "results", len(results))
	return results, nil
}

// SearchText embeds a free-text query and searches with the resulting
// vector. The query embedding is coerced to the schema dimension the same
// way stored embeddings are.
func (s *Searcher) SearchText(ctx context.Context, query string, threshold float32) ([]*core.SearchResult, error) {
	if s.embedder == nil {
		return nil, ErrEmbedderRequired
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}

	coerced, err := core.Normalize(vector, core.EmbeddingDim)
	if err != nil {
		return nil, err
	}

	return s.Search(ctx, coerced, threshold)
}
