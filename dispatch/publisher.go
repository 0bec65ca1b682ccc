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


package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/measurit/core"
)

// natsPublisher is the slice of *nats.Conn the publisher needs.
type natsPublisher interface {
	Publish(subject string, data []byte) error
}

// DefaultEmbedBatchSize is the number of row IDs per EmbedJob message.
// Large inserts fan out into multiple jobs so workers can share the load.
const DefaultEmbedBatchSize = 50

// Publisher emits pipeline trigger events over NATS.
type Publisher struct {
	conn           natsPublisher
	embedBatchSize int
	logger         *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithEmbedBatchSize sets the number of row IDs per EmbedJob message.
func WithEmbedBatchSize(size int) PublisherOption {
	return func(p *Publisher) {
		if size < 1 {
			size = 1
		}
		p.embedBatchSize = size
	}
}

// WithPublisherLogger sets a custom logger.
// Default is slog.Default().
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// NewPublisher creates a publisher over an established NATS connection.
func NewPublisher(conn natsPublisher, opts ...PublisherOption) (*Publisher, error) {
	if conn == nil {
		return nil, ErrConnectionRequired
	}

	p := &Publisher{
		conn:           conn,
		embedBatchSize: DefaultEmbedBatchSize,
		logger:         slog.Default().With("component", "dispatch-publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// PublishUpload announces an uploaded log file.
func (p *Publisher) PublishUpload(ctx context.Context, event UploadEvent) error {
	if event.MessageID == "" {
		event.MessageID = NewMessageID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode upload event: %w", err)
	}
	if err := p.conn.Publish(SubjectUploads, data); err != nil {
		return fmt.Errorf("failed to publish upload event: %w", err)
	}

	p.logger.Info("published upload event",
		"bucket", event.Bucket,
		"object", event.ObjectID,
		"message_id", event.MessageID)
	return nil
}

// PublishEmbedJobs fans the given row IDs out into EmbedJob messages of at
// most the configured batch size each.
func (p *Publisher) PublishEmbedJobs(ctx context.Context, ids []core.ID) error {
	for start := 0; start < len(ids); start += p.embedBatchSize {
		end := start + p.embedBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		job := EmbedJob{
			IDs:             ids[start:end],
			Table:           EmbedTable,
			ContentColumn:   EmbedContentColumn,
			EmbeddingColumn: EmbedEmbeddingColumn,
			Timestamp:       time.Now().UTC(),
			MessageID:       NewMessageID(),
		}

		data, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to encode embed job: %w", err)
		}
		if err := p.conn.Publish(SubjectEmbeddings, data); err != nil {
			return fmt.Errorf("failed to publish embed job: %w", err)
		}

		p.logger.Debug("published embed job", "rows", len(job.IDs), "message_id", job.MessageID)
	}
	return nil
}
