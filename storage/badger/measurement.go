package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/measurit/core"
	"github.com/poiesic/measurit/storage"
)

// MeasurementRepository implements storage.MeasurementRepository for BadgerDB.
type MeasurementRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.MeasurementRepository = (*MeasurementRepository)(nil)

// NewMeasurementRepository creates a new MeasurementRepository.
func NewMeasurementRepository(backend *Backend) (*MeasurementRepository, error) {
	idSeq, err := backend.GetSequence(measurementIDSeq)
	if err != nil {
		return nil, err
	}

	return &MeasurementRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *MeasurementRepository) Close() error {
	return r.idSeq.Release()
}

// FindSimilar delegates to the backend.
func (r *MeasurementRepository) FindSimilar(ctx context.Context, vector []float32, threshold float32) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, threshold)
}

// WithTransaction delegates to the backend.
func (r *MeasurementRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddMeasurements adds one or more measurements to storage. The whole call is
// one transaction: it either commits all the given records or none of them,
// which is what gives ingestion its per-batch atomicity.
func (r *MeasurementRepository) AddMeasurements(ctx context.Context, measurements ...*core.StoredMeasurement) ([]*core.StoredMeasurement, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, m := range measurements {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			m.Id = core.ID(nextID)

			if m.EmbeddingStatus == 0 {
				m.EmbeddingStatus = core.EmbeddingPending
			}
			m.InsertedAt = time.Now().UTC()
			m.UpdatedAt = m.InsertedAt

			key := makeMeasurementKey(m.Id)
			if err := tx.Set(key, storage.MarshalMeasurement(m)); err != nil {
				return err
			}

			// Ownership index for cascade delete and per-log lookup.
			logKey := makeMeasurementLogKey(m.LogId, m.Id)
			if err := tx.Set(logKey, storage.MarshalID(m.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return measurements, err
}

// UpdateMeasurements updates existing measurements. All updates commit in one
// transaction; a missing record aborts the whole call with ErrNotFound.
func (r *MeasurementRepository) UpdateMeasurements(ctx context.Context, measurements ...*core.StoredMeasurement) ([]*core.StoredMeasurement, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, m := range measurements {
			key := makeMeasurementKey(m.Id)

			old, err := readMeasurement(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			m.InsertedAt = old.InsertedAt
			m.UpdatedAt = time.Now().UTC()

			if err := tx.Set(key, storage.MarshalMeasurement(m)); err != nil {
				return err
			}

			// Move the ownership index entry if the owning log changed.
			if old.LogId != m.LogId {
				if err := tx.Delete(makeMeasurementLogKey(old.LogId, old.Id)); err != nil {
					return err
				}
				if err := tx.Set(makeMeasurementLogKey(m.LogId, m.Id), storage.MarshalID(m.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return measurements, err
}

// GetMeasurement retrieves a single measurement by ID.
func (r *MeasurementRepository) GetMeasurement(ctx context.Context, id core.ID) (*core.StoredMeasurement, error) {
	var result *core.StoredMeasurement
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readMeasurement(tx, makeMeasurementKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetMeasurements retrieves multiple measurements by their IDs.
// Missing records are skipped without error.
func (r *MeasurementRepository) GetMeasurements(ctx context.Context, ids ...core.ID) ([]*core.StoredMeasurement, error) {
	var result []*core.StoredMeasurement
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			m, err := readMeasurement(tx, makeMeasurementKey(id))
			if err != nil {
				return err
			}
			if m != nil {
				result = append(result, m)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetMeasurementsByLog retrieves all measurements owned by a log file, via
// the ownership index.
func (r *MeasurementRepository) GetMeasurementsByLog(ctx context.Context, logID core.ID) ([]*core.StoredMeasurement, error) {
	var results []*core.StoredMeasurement
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialMeasurementLogKey(logID)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || !bytes.Equal(key[:len(startKey)], startKey) {
				break
			}

			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			m, err := readMeasurement(tx, makeMeasurementKey(id))
			if err != nil {
				return err
			}
			if m != nil {
				results = append(results, m)
			}
		}
		return nil
	}, false)

	return results, err
}

// GetMeasurementsMissingEmbedding retrieves, from the given id set, only the
// rows whose embedding is still unset.
func (r *MeasurementRepository) GetMeasurementsMissingEmbedding(ctx context.Context, ids ...core.ID) ([]*core.StoredMeasurement, error) {
	all, err := r.GetMeasurements(ctx, ids...)
	if err != nil {
		return nil, err
	}

	result := all[:0]
	for _, m := range all {
		if len(m.Embedding) == 0 {
			result = append(result, m)
		}
	}
	return result, nil
}

// ListPendingEmbeddings scans for rows still awaiting an embedding.
func (r *MeasurementRepository) ListPendingEmbeddings(ctx context.Context, limit int) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(measurementPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(ids) >= limit {
				break
			}
			item := iter.Item()
			key := item.Key()
			if bytes.Equal(key, []byte(measurementIDSeq)) ||
				bytes.HasPrefix(key, []byte(measurementLogPrefix)) {
				continue
			}

			var m *core.StoredMeasurement
			if err := item.Value(func(val []byte) error {
				var err error
				m, err = storage.UnmarshalMeasurement(val)
				return err
			}); err != nil {
				return err
			}
			if m == nil {
				continue
			}
			if m.EmbeddingStatus == core.EmbeddingPending && len(m.Embedding) == 0 {
				ids = append(ids, m.Id)
			}
		}
		return nil
	}, false)

	return ids, err
}

// SetEmbeddingStatus updates only the embedding status of a row.
func (r *MeasurementRepository) SetEmbeddingStatus(ctx context.Context, id core.ID, status core.EmbeddingStatus) error {
	if err := core.ValidateEmbeddingStatus(status); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeMeasurementKey(id)
		m, err := readMeasurement(tx, key)
		if err != nil {
			return err
		}
		if m == nil {
			return storage.ErrNotFound
		}

		m.EmbeddingStatus = status
		m.UpdatedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalMeasurement(m)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// UpdateEmbedding writes the embedding vector and status of a row in one
// conditional update. Update-only: it never creates rows.
func (r *MeasurementRepository) UpdateEmbedding(ctx context.Context, id core.ID, vector []float32, status core.EmbeddingStatus) error {
	if err := core.ValidateEmbeddingStatus(status); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeMeasurementKey(id)
		m, err := readMeasurement(tx, key)
		if err != nil {
			return err
		}
		if m == nil {
			return storage.ErrNotFound
		}

		m.Embedding = vector
		m.EmbeddingStatus = status
		m.UpdatedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalMeasurement(m)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readMeasurement reads a measurement from the transaction. Returns nil for
// a missing key.
func readMeasurement(tx *badger.Txn, key []byte) (*core.StoredMeasurement, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var m *core.StoredMeasurement
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		m, unmarshalErr = storage.UnmarshalMeasurement(val)
		return unmarshalErr
	})
	return m, err
}
