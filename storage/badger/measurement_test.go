package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/measurit/core"
	"github.com/poiesic/measurit/storage"
)

func newSection(sensorName string) core.MeasurementSection {
	return core.MeasurementSection{
		SensorReadings:    []float64{0.52, 0.48, 0.61},
		TotalMeasurements: 3,
		Units:             "Watts",
		SensorName:        sensorName,
	}
}

func TestMeasurementBasics(t *testing.T) {
	logRepo, repo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repo.Close(); logRepo.Close(); backend.Close() }()

	ctx := context.Background()

	m := &core.StoredMeasurement{
		MeasurementSection: newSection("PSU rail A"),
		LogId:              42,
		Name:               "PSU rail A",
		EmbeddingText:      "PSU rail A: 3 readings",
	}

	added, err := repo.AddMeasurements(ctx, m)
	if err != nil {
		t.Fatalf("Failed to add measurement: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("Expected 1 measurement, got %d", len(added))
	}
	if added[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if added[0].EmbeddingStatus != core.EmbeddingPending {
		t.Fatalf("Expected pending status, got %s", added[0].EmbeddingStatus)
	}
	if added[0].InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	retrieved, err := repo.GetMeasurement(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get measurement: %v", err)
	}
	if retrieved.SensorName != "PSU rail A" {
		t.Fatalf("Expected 'PSU rail A', got '%s'", retrieved.SensorName)
	}
	if retrieved.Embedding != nil {
		t.Fatalf("Expected nil embedding on fresh row, got %v", retrieved.Embedding)
	}

	_, err = repo.GetMeasurement(ctx, 999999)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateMeasurements(t *testing.T) {
	logRepo, repo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repo.Close(); logRepo.Close(); backend.Close() }()

	ctx := context.Background()

	m := &core.StoredMeasurement{
		MeasurementSection: newSection("fan tach 1"),
		LogId:              7,
		Name:               "fan tach 1",
		EmbeddingText:      "fan tach 1: 3 readings",
	}
	added, err := repo.AddMeasurements(ctx, m)
	if err != nil {
		t.Fatalf("Failed to add measurement: %v", err)
	}

	added[0].Name = "fan tach 1 (rear)"
	added[0].LogId = 8
	updated, err := repo.UpdateMeasurements(ctx, added[0])
	if err != nil {
		t.Fatalf("Failed to update measurement: %v", err)
	}
	if updated[0].UpdatedAt.Before(updated[0].InsertedAt) {
		t.Fatal("Expected UpdatedAt to be at or after InsertedAt")
	}

	retrieved, err := repo.GetMeasurement(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get measurement: %v", err)
	}
	if retrieved.Name != "fan tach 1 (rear)" {
		t.Fatalf("Expected updated name, got '%s'", retrieved.Name)
	}

	// Ownership index follows the new log.
	byOld, err := repo.GetMeasurementsByLog(ctx, 7)
	if err != nil {
		t.Fatalf("Failed to get measurements by log: %v", err)
	}
	if len(byOld) != 0 {
		t.Fatalf("Expected old log to own nothing, got %d", len(byOld))
	}
	byNew, err := repo.GetMeasurementsByLog(ctx, 8)
	if err != nil {
		t.Fatalf("Failed to get measurements by log: %v", err)
	}
	if len(byNew) != 1 {
		t.Fatalf("Expected new log to own 1 measurement, got %d", len(byNew))
	}

	missing := &core.StoredMeasurement{MeasurementSection: newSection("ghost")}
	missing.Id = 9999
	if _, err := repo.UpdateMeasurements(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetMeasurementsByLog(t *testing.T) {
	logRepo, repo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repo.Close(); logRepo.Close(); backend.Close() }()

	ctx := context.Background()

	for _, name := range []string{"rail A", "rail B"} {
		_, err := repo.AddMeasurements(ctx, &core.StoredMeasurement{
			MeasurementSection: newSection(name),
			LogId:              7,
		})
		if err != nil {
			t.Fatalf("Failed to add measurement: %v", err)
		}
	}
	// A row owned by a different log must not appear.
	if _, err := repo.AddMeasurements(ctx, &core.StoredMeasurement{
		MeasurementSection: newSection("other log"),
		LogId:              8,
	}); err != nil {
		t.Fatalf("Failed to add measurement: %v", err)
	}

	owned, err := repo.GetMeasurementsByLog(ctx, 7)
	if err != nil {
		t.Fatalf("Failed to get measurements by log: %v", err)
	}
	if len(owned) != 2 {
		t.Fatalf("Expected 2 measurements for log 7, got %d", len(owned))
	}
	for _, m := range owned {
		if m.LogId != 7 {
			t.Fatalf("Expected LogId 7, got %d", m.LogId)
		}
	}
}

func TestGetMeasurementsMissingEmbedding(t *testing.T) {
	logRepo, repo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repo.Close(); logRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := repo.AddMeasurements(ctx,
		&core.StoredMeasurement{MeasurementSection: newSection("a"), LogId: 1},
		&core.StoredMeasurement{MeasurementSection: newSection("b"), LogId: 1},
	)
	if err != nil {
		t.Fatalf("Failed to add measurements: %v", err)
	}

	vector := make([]float32, core.EmbeddingDim)
	vector[0] = 1
	if err := repo.UpdateEmbedding(ctx, added[0].Id, vector, core.EmbeddingCompleted); err != nil {
		t.Fatalf("Failed to update embedding: %v", err)
	}

	missing, err := repo.GetMeasurementsMissingEmbedding(ctx, added[0].Id, added[1].Id)
	if err != nil {
		t.Fatalf("Failed to get missing embeddings: %v", err)
	}
	if len(missing) != 1 {
		t.Fatalf("Expected 1 row missing its embedding, got %d", len(missing))
	}
	if missing[0].Id != added[1].Id {
		t.Fatalf("Expected row %d, got %d", added[1].Id, missing[0].Id)
	}
}

func TestListPendingEmbeddings(t *testing.T) {
	logRepo, repo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repo.Close(); logRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := repo.AddMeasurements(ctx,
		&core.StoredMeasurement{MeasurementSection: newSection("a"), LogId: 1},
		&core.StoredMeasurement{MeasurementSection: newSection("b"), LogId: 1},
		&core.StoredMeasurement{MeasurementSection: newSection("c"), LogId: 1},
	)
	if err != nil {
		t.Fatalf("Failed to add measurements: %v", err)
	}

	if err := repo.SetEmbeddingStatus(ctx, added[1].Id, core.EmbeddingFailed); err != nil {
		t.Fatalf("Failed to set status: %v", err)
	}

	pending, err := repo.ListPendingEmbeddings(ctx, 0)
	if err != nil {
		t.Fatalf("Failed to list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("Expected 2 pending rows, got %d", len(pending))
	}

	limited, err := repo.ListPendingEmbeddings(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to list pending with limit: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("Expected 1 pending row with limit, got %d", len(limited))
	}
}

func TestSetEmbeddingStatus(t *testing.T) {
	logRepo, repo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repo.Close(); logRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := repo.AddMeasurements(ctx, &core.StoredMeasurement{
		MeasurementSection: newSection("a"), LogId: 1,
	})
	if err != nil {
		t.Fatalf("Failed to add measurement: %v", err)
	}

	if err := repo.SetEmbeddingStatus(ctx, added[0].Id, core.EmbeddingProcessing); err != nil {
		t.Fatalf("Failed to set status: %v", err)
	}

	m, err := repo.GetMeasurement(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get measurement: %v", err)
	}
	if m.EmbeddingStatus != core.EmbeddingProcessing {
		t.Fatalf("Expected processing, got %s", m.EmbeddingStatus)
	}
	if !m.UpdatedAt.After(m.InsertedAt) && !m.UpdatedAt.Equal(m.InsertedAt) {
		t.Fatal("Expected UpdatedAt to move forward")
	}

	err = repo.SetEmbeddingStatus(ctx, 999999, core.EmbeddingFailed)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	err = repo.SetEmbeddingStatus(ctx, added[0].Id, core.EmbeddingStatus(99))
	if !errors.Is(err, core.ErrInvalidEmbeddingStatus) {
		t.Fatalf("Expected ErrInvalidEmbeddingStatus, got %v", err)
	}
}

func TestUpdateEmbeddingMissingRow(t *testing.T) {
	logRepo, repo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repo.Close(); logRepo.Close(); backend.Close() }()

	vector := make([]float32, core.EmbeddingDim)
	err = repo.UpdateEmbedding(context.Background(), 999999, vector, core.EmbeddingCompleted)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestFindSimilar(t *testing.T) {
	logRepo, repo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repo.Close(); logRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := repo.AddMeasurements(ctx,
		&core.StoredMeasurement{MeasurementSection: newSection("exact"), LogId: 1},
		&core.StoredMeasurement{MeasurementSection: newSection("orthogonal"), LogId: 1},
		&core.StoredMeasurement{MeasurementSection: newSection("partial"), LogId: 1},
		&core.StoredMeasurement{MeasurementSection: newSection("unembedded"), LogId: 1},
	)
	if err != nil {
		t.Fatalf("Failed to add measurements: %v", err)
	}

	embed := func(id core.ID, x, y float32) {
		v := make([]float32, core.EmbeddingDim)
		v[0], v[1] = x, y
		if err := repo.UpdateEmbedding(ctx, id, v, core.EmbeddingCompleted); err != nil {
			t.Fatalf("Failed to update embedding: %v", err)
		}
	}
	embed(added[0].Id, 1, 0)
	embed(added[1].Id, 0, 1)
	embed(added[2].Id, 0.8, 0.6)
	// added[3] never gets an embedding and must be skipped.

	query := make([]float32, core.EmbeddingDim)
	query[0] = 1

	results, err := repo.FindSimilar(ctx, query, 0.5)
	if err != nil {
		t.Fatalf("Failed to find similar: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Measurement.SensorName != "exact" {
		t.Fatalf("Expected 'exact' first, got '%s'", results[0].Measurement.SensorName)
	}
	if results[1].Measurement.SensorName != "partial" {
		t.Fatalf("Expected 'partial' second, got '%s'", results[1].Measurement.SensorName)
	}
	if results[0].Score <= results[1].Score {
		t.Fatalf("Expected descending scores, got %f then %f", results[0].Score, results[1].Score)
	}

	// A score exactly at the threshold is excluded.
	atThreshold, err := repo.FindSimilar(ctx, query, 1.0)
	if err != nil {
		t.Fatalf("Failed to find similar: %v", err)
	}
	if len(atThreshold) != 0 {
		t.Fatalf("Expected no results at exact-threshold score, got %d", len(atThreshold))
	}
}
