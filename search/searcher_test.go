package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/measurit/ai/mock"
	"github.com/poiesic/measurit/core"
	"github.com/poiesic/measurit/storage"
	"github.com/poiesic/measurit/storage/badger"
)

func seedEmbeddedRows(t *testing.T, repo storage.MeasurementRepository) map[string]core.ID {
	t.Helper()
	ctx := context.Background()

	rows := map[string][2]float32{
		"exact":      {1, 0},
		"close":      {0.8, 0.6},
		"far":        {0, 1},
		"atBoundary": {0.5, 0.8660254}, // similarity exactly 0.5 against the x axis
	}

	ids := make(map[string]core.ID, len(rows))
	for name, coords := range rows {
		added, err := repo.AddMeasurements(ctx, &core.StoredMeasurement{
			MeasurementSection: core.MeasurementSection{
				SensorReadings: []float64{1},
				SensorName:     name,
			},
			LogId: 1,
		})
		require.NoError(t, err)

		v := make([]float32, core.EmbeddingDim)
		v[0], v[1] = coords[0], coords[1]
		require.NoError(t, repo.UpdateEmbedding(ctx, added[0].Id, v, core.EmbeddingCompleted))
		ids[name] = added[0].Id
	}

	// One row never completes embedding and must stay invisible.
	pending, err := repo.AddMeasurements(ctx, &core.StoredMeasurement{
		MeasurementSection: core.MeasurementSection{
			SensorReadings: []float64{1},
			SensorName:     "pending",
		},
		LogId: 1,
	})
	require.NoError(t, err)
	ids["pending"] = pending[0].Id

	return ids
}

func TestSearchStrictThresholdAndOrder(t *testing.T) {
	logRepo, repo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { repo.Close(); logRepo.Close(); backend.Close() }()

	seedEmbeddedRows(t, repo)

	searcher, err := NewSearcher(repo)
	require.NoError(t, err)

	query := make([]float32, core.EmbeddingDim)
	query[0] = 2 // not unit length; Search normalizes it

	results, err := searcher.Search(context.Background(), query, 0.5)
	require.NoError(t, err)

	// "atBoundary" scores exactly 0.5 and is excluded; "far" scores 0;
	// "pending" has no embedding.
	require.Len(t, results, 2)
	assert.Equal(t, "exact", results[0].Measurement.SensorName)
	assert.Equal(t, "close", results[1].Measurement.SensorName)
	assert.Greater(t, results[0].Score, results[1].Score, "results must be ordered most similar first")
}

func TestSearchNoMatches(t *testing.T) {
	logRepo, repo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { repo.Close(); logRepo.Close(); backend.Close() }()

	seedEmbeddedRows(t, repo)

	searcher, err := NewSearcher(repo)
	require.NoError(t, err)

	query := make([]float32, core.EmbeddingDim)
	query[0] = 1

	results, err := searcher.Search(context.Background(), query, 0.999)
	require.NoError(t, err)
	require.Len(t, results, 1, "only the exact match clears a near-1 threshold")
	assert.Equal(t, "exact", results[0].Measurement.SensorName)

	none, err := searcher.Search(context.Background(), query, 1.0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearcherValidation(t *testing.T) {
	_, err := NewSearcher(nil)
	assert.ErrorIs(t, err, ErrMeasurementRepositoryRequired)
}

func TestSearchText(t *testing.T) {
	logRepo, repo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { repo.Close(); logRepo.Close(); backend.Close() }()

	ctx := context.Background()
	embedder := mock.NewMockEmbedder()

	// Store a row embedded with the same deterministic embedder, so the
	// identical text scores 1.0.
	added, err := repo.AddMeasurements(ctx, &core.StoredMeasurement{
		MeasurementSection: core.MeasurementSection{
			SensorReadings: []float64{1},
			SensorName:     "rail",
		},
		LogId: 1,
	})
	require.NoError(t, err)

	vector, err := embedder.EmbedText(ctx, "power measurements for rail A")
	require.NoError(t, err)
	require.NoError(t, repo.UpdateEmbedding(ctx, added[0].Id, vector, core.EmbeddingCompleted))

	searcher, err := NewSearcher(repo, WithEmbedder(embedder))
	require.NoError(t, err)

	results, err := searcher.SearchText(ctx, "power measurements for rail A", 0.9)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "rail", results[0].Measurement.SensorName)
}

func TestSearchTextWithoutEmbedder(t *testing.T) {
	logRepo, repo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { repo.Close(); logRepo.Close(); backend.Close() }()

	searcher, err := NewSearcher(repo)
	require.NoError(t, err)

	_, err = searcher.SearchText(context.Background(), "anything", 0.5)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}
