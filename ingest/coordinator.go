package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/measurit/core"
	"github.com/poiesic/measurit/parse"
	"github.com/poiesic/measurit/storage"
)

// DefaultBatchSize is the number of measurement rows committed per
// transaction during ingestion.
const DefaultBatchSize = 50

// BatchEmbedder receives freshly inserted row IDs for embedding. It is
// satisfied by embed.Worker.
type BatchEmbedder interface {
	EmbedIDs(ctx context.Context, ids ...core.ID) error
}

// Dispatcher publishes embedding jobs for inserted rows so that a remote
// worker can pick them up. It is satisfied by dispatch.Publisher.
type Dispatcher interface {
	PublishEmbedJobs(ctx context.Context, ids []core.ID) error
}

// Coordinator turns raw instrumentation logs into persisted measurement
// rows and hands the row IDs off for asynchronous embedding.
type Coordinator struct {
	logRepository         storage.LogRepository
	measurementRepository storage.MeasurementRepository
	objectStore           storage.ObjectStore
	jsonParser            *parse.JSONParser
	textParser            *parse.TextParser
	embedder              BatchEmbedder
	dispatcher            Dispatcher
	pool                  *ants.Pool
	batchSize             int
	logger                *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithBatchSize sets the number of rows committed per transaction.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(c *Coordinator) error {
		if size < 1 {
			size = 1
		}
		c.batchSize = size
		return nil
	}
}

// WithPoolSize sets the worker pool size for async embedding submission.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(c *Coordinator) error {
		if size < 1 {
			size = 1
		}
		if c.pool != nil {
			c.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		c.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithObjectStore sets the object store used by IngestObject.
func WithObjectStore(store storage.ObjectStore) Option {
	return func(c *Coordinator) error {
		c.objectStore = store
		return nil
	}
}

// WithEmbedder sets the local batch embedder invoked after inserts.
func WithEmbedder(embedder BatchEmbedder) Option {
	return func(c *Coordinator) error {
		c.embedder = embedder
		return nil
	}
}

// WithDispatcher sets the publisher for remote embedding jobs.
func WithDispatcher(dispatcher Dispatcher) Option {
	return func(c *Coordinator) error {
		c.dispatcher = dispatcher
		return nil
	}
}

// NewCoordinator creates a new ingestion coordinator.
func NewCoordinator(
	logRepository storage.LogRepository,
	measurementRepository storage.MeasurementRepository,
	opts ...Option,
) (*Coordinator, error) {
	if logRepository == nil {
		return nil, ErrLogRepositoryRequired
	}
	if measurementRepository == nil {
		return nil, ErrMeasurementRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	c := &Coordinator{
		logRepository:         logRepository,
		measurementRepository: measurementRepository,
		jsonParser:            parse.NewJSONParser(logger),
		textParser:            parse.NewTextParser(logger),
		pool:                  pool,
		batchSize:             DefaultBatchSize,
		logger:                logger,
	}

	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}

	// Parsers pick up the final logger
	c.jsonParser = parse.NewJSONParser(c.logger)
	c.textParser = parse.NewTextParser(c.logger)

	return c, nil
}

// Ingest parses raw log bytes and persists the resulting measurement rows
// under the given log ID. Returns the number of rows written.
//
// Parser selection is JSON-first: the structured parser runs unless the
// payload is not JSON at all, in which case the free-text parser takes
// over. Rows are committed in batches; if a batch fails, rows from earlier
// batches stay committed and the error is returned.
func (c *Coordinator) Ingest(ctx context.Context, data []byte, logID core.ID) (int, error) {
	ids, err := c.ingest(ctx, data, logID)
	return len(ids), err
}

func (c *Coordinator) ingest(ctx context.Context, data []byte, logID core.ID) ([]core.ID, error) {
	sections, err := c.jsonParser.Parse(data)
	if errors.Is(err, parse.ErrNotJSON) {
		sections, err = c.textParser.Parse(data)
	}
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, ErrNoValidMeasurements
	}

	drafts := make([]*core.StoredMeasurement, 0, len(sections))
	for _, section := range sections {
		draft, err := newDraft(section, logID)
		if err != nil {
			c.logger.Warn("skipping section", "sensor", section.SensorName, "err", err)
			continue
		}
		drafts = append(drafts, draft)
	}
	if len(drafts) == 0 {
		return nil, ErrNoValidMeasurements
	}

	var ids []core.ID
	for start := 0; start < len(drafts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(drafts) {
			end = len(drafts)
		}

		added, err := c.measurementRepository.AddMeasurements(ctx, drafts[start:end]...)
		if err != nil {
			return ids, fmt.Errorf("%w: rows %d-%d: %v", ErrBatchWriteFailed, start, end-1, err)
		}
		for _, m := range added {
			ids = append(ids, m.Id)
		}
	}

	c.logger.Info("ingested measurements", "log_id", logID, "rows", len(ids))
	return ids, nil
}

// IngestObject downloads a log from the object store, records it, ingests
// its measurements, and submits the inserted rows for async embedding.
// Errors during async processing are logged but do not fail the ingestion.
func (c *Coordinator) IngestObject(ctx context.Context, bucket, object, owner, name string) (*core.LogFile, int, error) {
	if c.objectStore == nil {
		return nil, 0, ErrObjectStoreRequired
	}

	data, err := c.objectStore.Download(ctx, bucket, object)
	if err != nil {
		return nil, 0, err
	}

	logFile, err := c.logRepository.AddLogFile(ctx, &core.LogFile{
		Bucket:     bucket,
		ObjectPath: object,
		Owner:      owner,
		Name:       name,
	})
	if err != nil {
		return nil, 0, err
	}

	ids, ingestErr := c.ingest(ctx, data, logFile.Id)

	// Rows already committed get embedded even when a later batch failed.
	if len(ids) > 0 {
		c.submitForEmbedding(ids)
	}

	return logFile, len(ids), ingestErr
}

// submitForEmbedding hands inserted row IDs to the local embedder and/or
// the remote dispatcher. Row-level status guards make double delivery safe.
func (c *Coordinator) submitForEmbedding(ids []core.ID) {
	if c.embedder != nil {
		submitted := make([]core.ID, len(ids))
		copy(submitted, ids)
		c.pool.Submit(func() {
			if err := c.embedder.EmbedIDs(context.Background(), submitted...); err != nil {
				c.logger.Error("error embedding ingested rows", "err", err)
			}
		})
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.PublishEmbedJobs(context.Background(), ids); err != nil {
			c.logger.Error("error publishing embed jobs", "err", err)
		}
	}

	if c.embedder == nil && c.dispatcher == nil {
		c.logger.Debug("no embedder configured, rows remain pending", "rows", len(ids))
	}
}

// Release releases the worker pool.
// The coordinator should not be used after calling Release.
func (c *Coordinator) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// newDraft builds a persistable row from a parsed section.
func newDraft(section *core.MeasurementSection, logID core.ID) (*core.StoredMeasurement, error) {
	summary, err := core.Normalize(core.Float32s(section.SensorReadings), core.SummaryVectorDim)
	if err != nil {
		return nil, err
	}

	return &core.StoredMeasurement{
		MeasurementSection: *section,
		LogId:              logID,
		Name:               fmt.Sprintf("%s [%s]", section.SensorName, section.TstID),
		EmbeddingText:      buildEmbeddingText(section),
		SummaryVector:      summary,
		EmbeddingStatus:    core.EmbeddingPending,
	}, nil
}

// buildEmbeddingText renders a section as the natural-language summary the
// embedding model sees. Field order is stable so re-ingesting the same log
// produces the same text.
func buildEmbeddingText(s *core.MeasurementSection) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s measurements for %s", s.Category, s.SensorName)
	if s.Description != "" && s.Description != s.SensorName {
		fmt.Fprintf(&b, " (%s)", s.Description)
	}
	fmt.Fprintf(&b, ": %d readings from %g to %g %s, averaging %g.",
		s.TotalMeasurements, s.Min, s.Max, s.Units, s.Avg)

	if s.SubCategory != "" {
		fmt.Fprintf(&b, " Sub-category %s.", s.SubCategory)
	}
	if s.Source != "" {
		fmt.Fprintf(&b, " Source %s.", s.Source)
	}
	if s.UutType != "" {
		fmt.Fprintf(&b, " Unit under test %s.", s.UutType)
	}
	if s.Status != "" {
		fmt.Fprintf(&b, " Status %s.", s.Status)
	}

	return b.String()
}
