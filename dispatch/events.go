package dispatch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/measurit/core"
)

// Subjects for the two pipeline triggers.
const (
	SubjectUploads    = "measurit.uploads"
	SubjectEmbeddings = "measurit.embeddings"
)

// Embedding job target, fixed by the measurement schema.
const (
	EmbedTable           = "measurements"
	EmbedContentColumn   = "embedding_text"
	EmbedEmbeddingColumn = "embedding"
)

// UploadEvent announces that a log file landed in object storage and is
// ready for ingestion.
type UploadEvent struct {
	Bucket    string    `json:"bucket"`
	ObjectID  string    `json:"object_id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	MessageID string    `json:"message_id"`
}

// EmbedJob asks a worker to embed a set of persisted rows. Delivery is
// at-least-once; the worker's already-embedded guard absorbs duplicates.
type EmbedJob struct {
	IDs             []core.ID `json:"ids"`
	Table           string    `json:"table"`
	ContentColumn   string    `json:"content_column"`
	EmbeddingColumn string    `json:"embedding_column"`
	Timestamp       time.Time `json:"timestamp"`
	MessageID       string    `json:"message_id"`
}

// ValidateTarget checks that the job addresses the measurement schema.
// Jobs published for another table or column layout are not ours to run.
func (j *EmbedJob) ValidateTarget() error {
	if j.Table != EmbedTable || j.ContentColumn != EmbedContentColumn || j.EmbeddingColumn != EmbedEmbeddingColumn {
		return fmt.Errorf("%w: %s(%s -> %s)", ErrUnknownEmbedTarget, j.Table, j.ContentColumn, j.EmbeddingColumn)
	}
	return nil
}

// NewMessageID returns a unique ID for event correlation in logs.
func NewMessageID() string {
	return uuid.NewString()
}
