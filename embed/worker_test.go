package embed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/measurit/ai/mock"
	"github.com/poiesic/measurit/core"
	"github.com/poiesic/measurit/storage"
	"github.com/poiesic/measurit/storage/badger"
)

func newWorkerFixture(t *testing.T, embedder *mock.MockEmbedder, opts ...WorkerOption) (storage.MeasurementRepository, *Worker) {
	t.Helper()

	logRepo, repo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close(); logRepo.Close(); backend.Close() })

	opts = append([]WorkerOption{WithRetryDelay(time.Millisecond)}, opts...)
	worker, err := NewWorker(repo, embedder, opts...)
	require.NoError(t, err)

	return repo, worker
}

func addRow(t *testing.T, repo storage.MeasurementRepository, embeddingText string) core.ID {
	t.Helper()

	added, err := repo.AddMeasurements(context.Background(), &core.StoredMeasurement{
		MeasurementSection: core.MeasurementSection{
			SensorReadings: []float64{0.5, 0.6},
			SensorName:     "rail",
		},
		LogId:         1,
		EmbeddingText: embeddingText,
	})
	require.NoError(t, err)
	return added[0].Id
}

func TestNewWorkerValidation(t *testing.T) {
	_, err := NewWorker(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrMeasurementRepositoryRequired)

	logRepo, repo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { repo.Close(); logRepo.Close(); backend.Close() }()

	_, err = NewWorker(repo, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestEmbedBatchCompletesRows(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	repo, worker := newWorkerFixture(t, embedder)

	ctx := context.Background()
	id1 := addRow(t, repo, "power measurements for rail A")
	id2 := addRow(t, repo, "power measurements for rail B")

	results, err := worker.EmbedBatch(ctx, id1, id2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Equal(t, core.EmbeddingCompleted, r.Status)
		assert.NoError(t, r.Err)
	}

	row, err := repo.GetMeasurement(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingCompleted, row.EmbeddingStatus)
	assert.Len(t, row.Embedding, core.EmbeddingDim)

	// Stored vector is unit length.
	var sumSquares float32
	for _, v := range row.Embedding {
		sumSquares += v * v
	}
	assert.InDelta(t, 1.0, sumSquares, 0.001)
}

func TestEmbedBatchSkipsAlreadyEmbedded(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	repo, worker := newWorkerFixture(t, embedder)

	ctx := context.Background()
	id := addRow(t, repo, "thermal measurements for zone 1")

	_, err := worker.EmbedBatch(ctx, id)
	require.NoError(t, err)
	callsAfterFirst := embedder.CallCount()

	results, err := worker.EmbedBatch(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, results, "embedded row should not be fetched again")
	assert.Equal(t, callsAfterFirst, embedder.CallCount(), "no model call for an embedded row")
}

func TestEmbedBatchEmptyTextFailsWithoutModelCall(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	repo, worker := newWorkerFixture(t, embedder)

	ctx := context.Background()
	id := addRow(t, repo, "   ")

	results, err := worker.EmbedBatch(ctx, id)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, core.EmbeddingFailed, results[0].Status)
	assert.ErrorIs(t, results[0].Err, ErrEmptyEmbeddingText)
	assert.Equal(t, 0, embedder.CallCount(), "model must not be called for empty text")

	row, err := repo.GetMeasurement(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingFailed, row.EmbeddingStatus)
	assert.Nil(t, row.Embedding)
}

func TestEmbedBatchRowFailureDoesNotStopSiblings(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "poison" {
			return nil, errors.New("model exploded")
		}
		v := make([]float32, core.EmbeddingDim)
		v[0] = 1
		return v, nil
	}
	repo, worker := newWorkerFixture(t, embedder, WithMaxRetries(1))

	ctx := context.Background()
	good1 := addRow(t, repo, "good one")
	bad := addRow(t, repo, "poison")
	good2 := addRow(t, repo, "good two")

	results, err := worker.EmbedBatch(ctx, good1, bad, good2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byID := map[core.ID]RowResult{}
	for _, r := range results {
		byID[r.ID] = r
	}
	assert.Equal(t, core.EmbeddingCompleted, byID[good1].Status)
	assert.Equal(t, core.EmbeddingFailed, byID[bad].Status)
	assert.Error(t, byID[bad].Err)
	assert.Equal(t, core.EmbeddingCompleted, byID[good2].Status)

	row, err := repo.GetMeasurement(ctx, bad)
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingFailed, row.EmbeddingStatus)
}

func TestEmbedBatchRetriesTransientFailure(t *testing.T) {
	calls := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("transient")
		}
		v := make([]float32, core.EmbeddingDim)
		v[0] = 1
		return v, nil
	}
	repo, worker := newWorkerFixture(t, embedder, WithMaxRetries(3))

	id := addRow(t, repo, "retry me")
	results, err := worker.EmbedBatch(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.EmbeddingCompleted, results[0].Status)
	assert.Equal(t, 3, calls)
}

func TestEmbedBatchTimeoutLeavesRowsPending(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		// Outlive the invocation budget.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
		v := make([]float32, core.EmbeddingDim)
		v[0] = 1
		return v, nil
	}
	repo, worker := newWorkerFixture(t, embedder, WithMaxRetries(1), WithTimeout(50*time.Millisecond))

	ctx := context.Background()
	id1 := addRow(t, repo, "slow row")
	id2 := addRow(t, repo, "never reached")

	results, err := worker.EmbedBatch(ctx, id1, id2)
	require.NoError(t, err)

	// First row was caught mid-flight and reverted; second was never touched.
	require.Len(t, results, 1)
	assert.Equal(t, core.EmbeddingPending, results[0].Status)
	assert.Error(t, results[0].Err)

	for _, id := range []core.ID{id1, id2} {
		row, err := repo.GetMeasurement(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, core.EmbeddingPending, row.EmbeddingStatus, "row %d must not be stuck", id)
		assert.Nil(t, row.Embedding)
	}
}

func TestEmbedBatchCoercesModelDimension(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		// Model returns a shorter vector than the schema expects.
		return []float32{0.1, 0.2, 0.3}, nil
	}
	repo, worker := newWorkerFixture(t, embedder)

	ctx := context.Background()
	id := addRow(t, repo, "short vector")

	results, err := worker.EmbedBatch(ctx, id)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.EmbeddingCompleted, results[0].Status)

	row, err := repo.GetMeasurement(ctx, id)
	require.NoError(t, err)
	assert.Len(t, row.Embedding, core.EmbeddingDim)
}
