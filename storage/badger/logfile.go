package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/measurit/core"
	"github.com/poiesic/measurit/storage"
)

// LogRepository implements storage.LogRepository for BadgerDB.
type LogRepository struct {
	backend *Backend
}

var _ storage.LogRepository = (*LogRepository)(nil)

// NewLogRepository creates a new LogRepository.
func NewLogRepository(backend *Backend) (*LogRepository, error) {
	return &LogRepository{backend: backend}, nil
}

// Close releases resources held by the repository.
func (r *LogRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *LogRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddLogFile records a log file. The ID is derived from the bucket and
// object path, so re-ingesting the same object overwrites the prior record
// instead of duplicating it.
func (r *LogRepository) AddLogFile(ctx context.Context, logFile *core.LogFile) (*core.LogFile, error) {
	logFile.Id = core.IDFromContent(logFile.Bucket + "/" + logFile.ObjectPath)
	logFile.InsertedAt = time.Now().UTC()
	logFile.UpdatedAt = logFile.InsertedAt

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeLogFileKey(logFile.Id), storage.MarshalLogFile(logFile)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return logFile, err
}

// GetLogFile retrieves a log file by ID.
func (r *LogRepository) GetLogFile(ctx context.Context, id core.ID) (*core.LogFile, error) {
	var result *core.LogFile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeLogFileKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalLogFile(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// ListLogFiles returns all recorded log files.
func (r *LogRepository) ListLogFiles(ctx context.Context) ([]*core.LogFile, error) {
	var results []*core.LogFile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(logFilePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var logFile *core.LogFile
			if err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				logFile, unmarshalErr = storage.UnmarshalLogFile(val)
				return unmarshalErr
			}); err != nil {
				return err
			}
			results = append(results, logFile)
		}
		return nil
	}, false)
	return results, err
}

// DeleteLogFile removes a log file record along with every measurement it
// owns, using the ownership index to find them. One transaction: either the
// whole cascade commits or none of it does.
func (r *LogRepository) DeleteLogFile(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := tx.Get(makeLogFileKey(id)); err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		startKey := makePartialMeasurementLogKey(id)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)

		var indexKeys [][]byte
		var measurementIDs []core.ID
		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || !bytes.Equal(key[:len(startKey)], startKey) {
				break
			}
			indexKeys = append(indexKeys, iter.Item().KeyCopy(nil))

			var measurementID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				measurementID, unmarshalErr = storage.UnmarshalID(val)
				return unmarshalErr
			}); err != nil {
				iter.Close()
				return err
			}
			measurementIDs = append(measurementIDs, measurementID)
		}
		iter.Close()

		for _, measurementID := range measurementIDs {
			if err := tx.Delete(makeMeasurementKey(measurementID)); err != nil {
				return err
			}
		}
		for _, key := range indexKeys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		if err := tx.Delete(makeLogFileKey(id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
