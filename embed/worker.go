package embed

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/measurit/ai"
	"github.com/poiesic/measurit/core"
	"github.com/poiesic/measurit/storage"
)

// RowResult records the outcome of embedding a single measurement row.
// A failed row never hides its error; callers decide whether to alert,
// retry, or move on.
type RowResult struct {
	ID     core.ID
	Status core.EmbeddingStatus
	Err    error
}

// Worker generates embeddings for persisted measurement rows. Each
// EmbedBatch invocation is self-contained: it reads the rows it was given,
// updates them, and keeps no state between calls, so concurrent invocations
// over disjoint row sets are safe.
type Worker struct {
	repo       storage.MeasurementRepository
	embedder   ai.Embedder
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	logger     *slog.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithMaxRetries sets the number of model call attempts per row.
// Default is 3.
func WithMaxRetries(n int) WorkerOption {
	return func(w *Worker) {
		if n < 1 {
			n = 1
		}
		w.maxRetries = n
	}
}

// WithRetryDelay sets the base delay for exponential backoff between
// model call attempts. Default is 1 second.
func WithRetryDelay(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.retryDelay = d
	}
}

// WithTimeout sets a per-invocation budget for EmbedBatch. Zero means no
// budget beyond the caller's context.
func WithTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.timeout = d
	}
}

// WithWorkerLogger sets a custom logger.
// Default is slog.Default().
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
	}
}

// NewWorker creates a new embedding worker.
func NewWorker(repo storage.MeasurementRepository, embedder ai.Embedder, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrMeasurementRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	w := &Worker{
		repo:       repo,
		embedder:   embedder,
		maxRetries: 3,
		retryDelay: time.Second,
		logger:     slog.Default().With("component", "embed-worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// EmbedBatch embeds the given rows, one model call per row. Rows that
// already have an embedding are skipped entirely, which makes redelivery of
// the same IDs safe. A failing row is marked failed and its siblings keep
// going. When the invocation budget expires, rows not yet started stay
// pending for a later run; no row is left stuck in processing.
func (w *Worker) EmbedBatch(ctx context.Context, ids ...core.ID) ([]RowResult, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	rows, err := w.repo.GetMeasurementsMissingEmbedding(ctx, ids...)
	if err != nil {
		return nil, err
	}

	w.logger.Info("embedding rows", "requested", len(ids), "missing", len(rows))

	results := make([]RowResult, 0, len(rows))
	for _, row := range rows {
		if ctx.Err() != nil {
			// Budget spent. Untouched rows stay pending.
			break
		}
		results = append(results, w.embedRow(ctx, row))
	}
	return results, nil
}

// EmbedIDs is the fire-and-forget form of EmbedBatch used by ingestion.
// Per-row failures are logged, not returned.
func (w *Worker) EmbedIDs(ctx context.Context, ids ...core.ID) error {
	results, err := w.EmbedBatch(ctx, ids...)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Status == core.EmbeddingFailed {
			failed++
			w.logger.Warn("row failed to embed", "id", r.ID, "err", r.Err)
		}
	}
	if failed > 0 {
		w.logger.Error("some rows failed to embed", "failed", failed, "total", len(results))
	}
	return nil
}

func (w *Worker) embedRow(ctx context.Context, row *core.StoredMeasurement) RowResult {
	if strings.TrimSpace(row.EmbeddingText) == "" {
		// Nothing to send to the model; fail the row without a call.
		if err := w.repo.SetEmbeddingStatus(ctx, row.Id, core.EmbeddingFailed); err != nil {
			return RowResult{ID: row.Id, Status: core.EmbeddingPending, Err: err}
		}
		return RowResult{ID: row.Id, Status: core.EmbeddingFailed, Err: ErrEmptyEmbeddingText}
	}

	if err := w.repo.SetEmbeddingStatus(ctx, row.Id, core.EmbeddingProcessing); err != nil {
		return RowResult{ID: row.Id, Status: core.EmbeddingPending, Err: err}
	}

	var vector []float32
	err := RetryWithBackoff(ctx, func() error {
		v, embedErr := w.embedder.EmbedText(ctx, row.EmbeddingText)
		if embedErr != nil {
			return embedErr
		}
		vector = v
		return nil
	}, w.maxRetries, w.retryDelay)

	if err != nil {
		if ctx.Err() != nil {
			return w.revertToPending(row.Id, ctx.Err())
		}
		return w.markFailed(ctx, row.Id, err)
	}

	coerced, err := core.Normalize(vector, core.EmbeddingDim)
	if err != nil {
		return w.markFailed(ctx, row.Id, err)
	}
	unit := core.NormalizeUnit(coerced)

	if err := w.repo.UpdateEmbedding(ctx, row.Id, unit, core.EmbeddingCompleted); err != nil {
		if ctx.Err() != nil {
			return w.revertToPending(row.Id, ctx.Err())
		}
		return w.markFailed(ctx, row.Id, err)
	}

	return RowResult{ID: row.Id, Status: core.EmbeddingCompleted}
}

// revertToPending undoes the processing mark on a row whose invocation ran
// out of budget, so a later run picks it up again. The status write uses a
// fresh context since the invocation's own context is already dead.
func (w *Worker) revertToPending(id core.ID, cause error) RowResult {
	if err := w.repo.SetEmbeddingStatus(context.Background(), id, core.EmbeddingPending); err != nil {
		w.logger.Error("failed to revert row to pending", "id", id, "err", err)
	}
	return RowResult{ID: id, Status: core.EmbeddingPending, Err: cause}
}

func (w *Worker) markFailed(ctx context.Context, id core.ID, cause error) RowResult {
	if err := w.repo.SetEmbeddingStatus(ctx, id, core.EmbeddingFailed); err != nil {
		w.logger.Error("failed to mark row failed", "id", id, "err", err)
	}
	return RowResult{ID: id, Status: core.EmbeddingFailed, Err: cause}
}
