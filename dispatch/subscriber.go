package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/poiesic/measurit/core"
)

// ObjectIngester handles upload events. It is satisfied by
// ingest.Coordinator.
type ObjectIngester interface {
	IngestObject(ctx context.Context, bucket, object, owner, name string) (*core.LogFile, int, error)
}

// BatchEmbedder handles embed jobs. It is satisfied by embed.Worker.
type BatchEmbedder interface {
	EmbedIDs(ctx context.Context, ids ...core.ID) error
}

// natsSubscriber is the slice of *nats.Conn the subscriber needs.
type natsSubscriber interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Subscriber consumes pipeline trigger events and drives the ingestion
// coordinator and embedding worker. Handlers are idempotent downstream, so
// redelivered messages are harmless.
type Subscriber struct {
	conn          natsSubscriber
	ingester      ObjectIngester
	embedder      BatchEmbedder
	subscriptions []*nats.Subscription
	logger        *slog.Logger
}

// NewSubscriber creates a subscriber over an established NATS connection.
// Either collaborator may be nil; the corresponding subject is then ignored.
func NewSubscriber(conn natsSubscriber, ingester ObjectIngester, embedder BatchEmbedder, logger *slog.Logger) (*Subscriber, error) {
	if conn == nil {
		return nil, ErrConnectionRequired
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Subscriber{
		conn:     conn,
		ingester: ingester,
		embedder: embedder,
		logger:   logger.With("component", "dispatch-subscriber"),
	}, nil
}

// Start subscribes to the trigger subjects. Message handling runs on NATS
// callback goroutines until Stop.
func (s *Subscriber) Start(ctx context.Context) error {
	if s.ingester != nil {
		sub, err := s.conn.Subscribe(SubjectUploads, func(msg *nats.Msg) {
			s.handleUpload(ctx, msg.Data)
		})
		if err != nil {
			return err
		}
		s.subscriptions = append(s.subscriptions, sub)
		s.logger.Info("subscribed", "subject", SubjectUploads)
	}

	if s.embedder != nil {
		sub, err := s.conn.Subscribe(SubjectEmbeddings, func(msg *nats.Msg) {
			s.handleEmbedJob(ctx, msg.Data)
		})
		if err != nil {
			s.Stop()
			return err
		}
		s.subscriptions = append(s.subscriptions, sub)
		s.logger.Info("subscribed", "subject", SubjectEmbeddings)
	}

	return nil
}

// Stop unsubscribes from all subjects.
func (s *Subscriber) Stop() {
	for _, sub := range s.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			s.logger.Warn("failed to unsubscribe", "subject", sub.Subject, "err", err)
		}
	}
	s.subscriptions = nil
}

// handleUpload ingests the announced object. Errors are logged; the event
// is not retried here since re-uploading the object re-triggers it.
func (s *Subscriber) handleUpload(ctx context.Context, data []byte) {
	var event UploadEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Error("dropping malformed upload event", "err", err)
		return
	}

	logger := s.logger.With("message_id", event.MessageID)
	logger.Info("handling upload event", "bucket", event.Bucket, "object", event.ObjectID)

	logFile, count, err := s.ingester.IngestObject(ctx, event.Bucket, event.ObjectID, event.Owner, event.Name)
	if err != nil {
		logger.Error("upload ingestion failed", "err", err, "rows_committed", count)
		return
	}
	logger.Info("upload ingested", "log_id", logFile.Id, "rows", count)
}

// handleEmbedJob embeds the requested rows. Rows already embedded are
// skipped by the worker, which makes duplicate delivery safe.
func (s *Subscriber) handleEmbedJob(ctx context.Context, data []byte) {
	var job EmbedJob
	if err := json.Unmarshal(data, &job); err != nil {
		s.logger.Error("dropping malformed embed job", "err", err)
		return
	}

	logger := s.logger.With("message_id", job.MessageID)
	if err := job.ValidateTarget(); err != nil {
		logger.Error("dropping embed job for unknown target", "err", err)
		return
	}
	logger.Info("handling embed job", "rows", len(job.IDs))

	if err := s.embedder.EmbedIDs(ctx, job.IDs...); err != nil {
		logger.Error("embed job failed", "err", err)
		return
	}
	logger.Info("embed job complete", "rows", len(job.IDs))
}
