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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/measurit"
	"github.com/poiesic/measurit/ai"
	"github.com/poiesic/measurit/core"
	"github.com/poiesic/measurit/dispatch"
	"github.com/poiesic/measurit/embed"
	"github.com/poiesic/measurit/ingest"
	"github.com/poiesic/measurit/storage/gcs"
)

func main() {
	app := &cli.App{
		Name:  "measurit",
		Usage: "Instrumentation log ingestion and similarity search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Parse a local log file and persist its measurements",
				ArgsUsage: "<log file>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of rows to commit per transaction",
						Value: ingest.DefaultBatchSize,
					},
				},
			},
			{
				Name:   "embed",
				Usage:  "Embed all rows still awaiting an embedding",
				Action: embedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of rows to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N rows",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed model calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search measurements by free-text query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.Float64Flag{
						Name:    "threshold",
						Aliases: []string{"t"},
						Usage:   "Minimum similarity score (exclusive)",
						Value:   0.5,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum results to print (0 = all)",
						Value: 10,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Consume upload and embedding events from NATS",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "nats-url",
						Usage: "NATS server URL",
						Value: nats.DefaultURL,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "embed-timeout",
						Usage: "Time budget per embedding invocation",
						Value: 5 * time.Minute,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("a log file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}

	db, err := measurit.NewDatabase(c.String("db"),
		measurit.WithAIConfig(ai.DefaultConfig()))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	coordinator, err := ingest.NewCoordinator(
		db.LogRepository(),
		db.MeasurementRepository(),
		ingest.WithBatchSize(c.Int("batch-size")),
	)
	if err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}
	defer coordinator.Release()

	logFile, err := db.LogRepository().AddLogFile(ctx, &core.LogFile{
		Bucket:     "local",
		ObjectPath: path,
		Name:       path,
	})
	if err != nil {
		return fmt.Errorf("failed to record log file: %w", err)
	}

	count, err := coordinator.Ingest(ctx, data, logFile.Id)
	if err != nil {
		return fmt.Errorf("ingestion failed after %d rows: %w", count, err)
	}

	fmt.Printf("Ingested %d measurements from %s (log %d)\n", count, path, logFile.Id)
	fmt.Println("Rows are pending embedding; run 'measurit embed' to embed them.")
	return nil
}

func embedCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	worker, err := db.NewWorker(
		embed.WithMaxRetries(c.Int("max-retries")),
		embed.WithRetryDelay(c.Duration("retry-delay")),
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	config := &embed.BackfillConfig{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	backfiller := embed.NewBackfiller(db.MeasurementRepository(), worker, config, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := backfiller.Run(ctx); err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a search query is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.SearchText(ctx, query, float32(c.Float64("threshold")))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	limit := c.Int("limit")
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	for i, r := range results {
		m := r.Measurement
		fmt.Printf("%2d. [%.4f] %s\n", i+1, r.Score, m.Name)
		fmt.Printf("    %s\n", m.EmbeddingText)
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := gcs.NewObjectStore(ctx, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create object store: %w", err)
	}
	defer store.Close()

	worker, err := db.NewWorker(embed.WithTimeout(c.Duration("embed-timeout")))
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	conn, err := nats.Connect(c.String("nats-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer conn.Close()

	publisher, err := dispatch.NewPublisher(conn)
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}

	coordinator, err := ingest.NewCoordinator(
		db.LogRepository(),
		db.MeasurementRepository(),
		ingest.WithObjectStore(store),
		ingest.WithDispatcher(publisher),
	)
	if err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}
	defer coordinator.Release()

	subscriber, err := dispatch.NewSubscriber(conn, coordinator, worker, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create subscriber: %w", err)
	}
	if err := subscriber.Start(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer subscriber.Stop()

	slog.Info("serving", "nats", c.String("nats-url"), "db", c.String("db"))
	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

// openDatabase opens the database with the embedding config from flags.
func openDatabase(c *cli.Context) (*measurit.Database, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := measurit.NewDatabase(c.String("db"), measurit.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
