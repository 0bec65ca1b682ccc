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


package measurit

import (
	"io"
	"log/slog"

	"github.com/poiesic/measurit/ai"
	"github.com/poiesic/measurit/ai/openai"
	"github.com/poiesic/measurit/embed"
	"github.com/poiesic/measurit/ingest"
	"github.com/poiesic/measurit/search"
	"github.com/poiesic/measurit/storage"
	"github.com/poiesic/measurit/storage/badger"
)

// Database bundles the storage backend, repositories and AI provider behind
// one handle. The pipeline pieces (coordinator, worker, searcher) are built
// from it on demand.
type Database struct {
	backend         *badger.Backend
	logRepo         storage.LogRepository
	measurementRepo storage.MeasurementRepository
	provider        ai.AIProvider
	logger          *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	inMemory bool
	provider ai.AIProvider
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithInMemory opens the backend in memory, for tests and experiments.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithAIProvider overrides the provider entirely. Primarily for injecting
// mocks.
func WithAIProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// NewDatabase opens a measurement database at the given path.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	logRepo, err := badger.NewLogRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	measurementRepo, err := badger.NewMeasurementRepository(backend)
	if err != nil {
		logRepo.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			measurementRepo.Close()
			logRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:         backend,
		logRepo:         logRepo,
		measurementRepo: measurementRepo,
		provider:        provider,
		logger:          slog.Default(),
	}, nil
}

// Close shuts everything down, provider first so no new model calls start
// while storage is going away.
func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.measurementRepo.Close(); err != nil {
		db.logger.Error("error closing measurement repository", "err", err)
		return err
	}
	if err := db.logRepo.Close(); err != nil {
		db.logger.Error("error closing log repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// LogRepository exposes the log file repository.
func (db *Database) LogRepository() storage.LogRepository {
	return db.logRepo
}

// MeasurementRepository exposes the measurement repository.
func (db *Database) MeasurementRepository() storage.MeasurementRepository {
	return db.measurementRepo
}

// NewCoordinator builds an ingestion coordinator wired to this database.
// The embedding worker hand-off is included unless overridden via options.
func (db *Database) NewCoordinator(opts ...ingest.Option) (*ingest.Coordinator, error) {
	worker, err := db.NewWorker()
	if err != nil {
		return nil, err
	}
	opts = append([]ingest.Option{ingest.WithEmbedder(worker)}, opts...)
	return ingest.NewCoordinator(db.logRepo, db.measurementRepo, opts...)
}

// NewWorker builds an embedding worker wired to this database.
func (db *Database) NewWorker(opts ...embed.WorkerOption) (*embed.Worker, error) {
	return embed.NewWorker(db.measurementRepo, db.provider.Embedder(), opts...)
}

// NewSearcher builds a similarity searcher wired to this database.
func (db *Database) NewSearcher(opts ...search.SearcherOption) (*search.Searcher, error) {
	opts = append([]search.SearcherOption{search.WithEmbedder(db.provider.Embedder())}, opts...)
	return search.NewSearcher(db.measurementRepo, opts...)
}

// NewBackfiller builds a backfiller that embeds every pending row.
// progress: where to write progress output (typically os.Stderr)
func (db *Database) NewBackfiller(config *embed.BackfillConfig, progress io.Writer) (*embed.Backfiller, error) {
	worker, err := db.NewWorker()
	if err != nil {
		return nil, err
	}
	return embed.NewBackfiller(db.measurementRepo, worker, config, progress), nil
}
