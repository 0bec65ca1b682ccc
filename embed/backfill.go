// Copyright 2026 Poiesic Systems
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


package embed

import (
	"context"
	"fmt"
	"io"

	"github.com/poiesic/measurit/core"
	"github.com/poiesic/measurit/storage"
)

// BackfillConfig holds configuration for a backfill run.
type BackfillConfig struct {
	// BatchSize is the number of rows to process per EmbedBatch call
	BatchSize int

	// ReportInterval is how often to report progress (number of rows)
	ReportInterval int
}

// DefaultBackfillConfig returns a BackfillConfig with sensible defaults.
func DefaultBackfillConfig() *BackfillConfig {
	return &BackfillConfig{
		BatchSize:      100,
		ReportInterval: 100,
	}
}

// Backfiller embeds every row still pending in the database. It exists for
// recovery: rows left pending by a crashed or timed-out ingestion, or by a
// worker that never ran, get picked up here.
type Backfiller struct {
	repo     storage.MeasurementRepository
	worker   *Worker
	config   *BackfillConfig
	progress io.Writer
}

// NewBackfiller creates a new backfiller.
// progress: where to write progress output (typically os.Stderr)
func NewBackfiller(repo storage.MeasurementRepository, worker *Worker, config *BackfillConfig, progress io.Writer) *Backfiller {
	if config == nil {
		config = DefaultBackfillConfig()
	}
	return &Backfiller{
		repo:     repo,
		worker:   worker,
		config:   config,
		progress: progress,
	}
}

// Run embeds all pending rows in batches until none remain or the context
// expires. Rows that fail move to the failed state and are not retried
// within the same run.
func (b *Backfiller) Run(ctx context.Context) error {
	pending, err := b.repo.ListPendingEmbeddings(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to count pending rows: %w", err)
	}

	if len(pending) == 0 {
		fmt.Fprintf(b.progress, "No pending rows found (0 rows)\n")
		return nil
	}

	fmt.Fprintf(b.progress, "Starting backfill of %d rows (batch size: %d)\n",
		len(pending), b.config.BatchSize)

	tracker := NewProgressTracker(b.progress, len(pending), b.config.ReportInterval)
	tracker.Start()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		batch, err := b.repo.ListPendingEmbeddings(ctx, b.config.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to list pending rows: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		results, err := b.worker.EmbedBatch(ctx, batch...)
		if err != nil {
			return fmt.Errorf("failed to embed batch: %w", err)
		}

		done := 0
		for _, r := range results {
			if r.Status != core.EmbeddingPending {
				done++
			}
		}
		tracker.Increment(done)

		// No row advanced: either the budget ran out mid-batch or every
		// row reverted. Bail instead of spinning on the same rows.
		if done == 0 {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("backfill made no progress on batch of %d rows", len(batch))
		}
	}

	tracker.Finish()
	return nil
}
