package storage

import (
	"context"

	"github.com/poiesic/measurit/core"
)

// Repository provides common storage operations shared across all
// repositories. Implementations must be thread-safe and support concurrent
// access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the repository and releases resources.
	Close() error
}

// LogRepository provides operations for managing log file records.
type LogRepository interface {
	Repository

	// AddLogFile adds a log file record. Sets InsertedAt if not already set.
	// The record's ID is content-derived by the caller; an existing record
	// with the same ID is overwritten.
	AddLogFile(ctx context.Context, log *core.LogFile) (*core.LogFile, error)

	// GetLogFile retrieves a log file by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetLogFile(ctx context.Context, id core.ID) (*core.LogFile, error)

	// ListLogFiles retrieves all log file records.
	ListLogFiles(ctx context.Context) ([]*core.LogFile, error)

	// DeleteLogFile removes a log file and cascades to all measurements it
	// owns. Returns ErrNotFound if the record doesn't exist.
	DeleteLogFile(ctx context.Context, id core.ID) error
}

// MeasurementRepository provides operations for managing stored
// measurements, including the vector-similarity query that serves search.
type MeasurementRepository interface {
	Repository

	// AddMeasurements adds one or more measurements to storage. Generates
	// sequence IDs for records with ID=0 and sets timestamps. Returns the
	// records with IDs and timestamps populated.
	AddMeasurements(ctx context.Context, measurements ...*core.StoredMeasurement) ([]*core.StoredMeasurement, error)

	// UpdateMeasurements updates existing measurements in a single
	// transaction. Returns ErrNotFound if any record doesn't exist.
	UpdateMeasurements(ctx context.Context, measurements ...*core.StoredMeasurement) ([]*core.StoredMeasurement, error)

	// GetMeasurement retrieves a single measurement by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetMeasurement(ctx context.Context, id core.ID) (*core.StoredMeasurement, error)

	// GetMeasurements retrieves multiple measurements by their IDs.
	// Returns only the records that exist (no error for missing records).
	GetMeasurements(ctx context.Context, ids ...core.ID) ([]*core.StoredMeasurement, error)

	// GetMeasurementsByLog retrieves all measurements owned by a log file.
	GetMeasurementsByLog(ctx context.Context, logID core.ID) ([]*core.StoredMeasurement, error)

	// GetMeasurementsMissingEmbedding retrieves, from the given id set, only
	// the rows whose embedding is still unset. Rows already carrying an
	// embedding are excluded entirely, which makes embedding invocations
	// idempotent.
	GetMeasurementsMissingEmbedding(ctx context.Context, ids ...core.ID) ([]*core.StoredMeasurement, error)

	// ListPendingEmbeddings returns the IDs of up to limit rows whose
	// embedding status is pending. A limit <= 0 means no limit.
	ListPendingEmbeddings(ctx context.Context, limit int) ([]core.ID, error)

	// SetEmbeddingStatus updates only the embedding status of a row.
	// Returns ErrNotFound if the record doesn't exist.
	SetEmbeddingStatus(ctx context.Context, id core.ID, status core.EmbeddingStatus) error

	// UpdateEmbedding writes the embedding vector and status of a row in a
	// single conditional update. It never creates or deletes rows.
	// Returns ErrNotFound if the record doesn't exist.
	UpdateEmbedding(ctx context.Context, id core.ID, vector []float32, status core.EmbeddingStatus) error

	// FindSimilar finds measurements whose embedding similarity to the given
	// vector strictly exceeds threshold. Results are ordered most-similar
	// first with no implicit limit. Both stored and query vectors are
	// expected to be unit-normalized, so inner product equals cosine
	// similarity.
	FindSimilar(ctx context.Context, vector []float32, threshold float32) ([]*core.SearchResult, error)
}

// ObjectStore is the object-storage collaborator: it downloads uploaded log
// files by bucket and object path.
type ObjectStore interface {
	// Download fetches the raw bytes of an object.
	// Failures are reported as ErrDownloadFailed.
	Download(ctx context.Context, bucket, object string) ([]byte, error)
}
