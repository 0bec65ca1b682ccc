package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Vector dimensions used by the two vector pipelines. SummaryVectorDim is the
// compact fixed-dimension summary of raw sensor readings; EmbeddingDim is the
// dimension of text-embedding vectors produced by the embedding model. The
// two pipelines are independent, not layers of each other.
const (
	SummaryVectorDim = 16
	EmbeddingDim     = 384
)

// EmbeddingStatus tracks the per-row state of embedding generation.
// Rows move pending -> processing -> completed or failed.
type EmbeddingStatus int

const (
	// EmbeddingPending means the row has been inserted but not yet embedded.
	EmbeddingPending EmbeddingStatus = iota + 1
	// EmbeddingProcessing means an embedding worker has claimed the row.
	EmbeddingProcessing
	// EmbeddingCompleted means the embedding vector has been written.
	EmbeddingCompleted
	// EmbeddingFailed means embedding generation failed for this row.
	EmbeddingFailed
)

// String returns the lowercase name of the status.
func (s EmbeddingStatus) String() string {
	switch s {
	case EmbeddingPending:
		return "pending"
	case EmbeddingProcessing:
		return "processing"
	case EmbeddingCompleted:
		return "completed"
	case EmbeddingFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MeasurementSection is the canonical record recovered from an uploaded log
// file, one per sensor section. Both the text and JSON parsers converge on
// this shape; field names must not drift between parser variants.
type MeasurementSection struct {
	SensorReadings    []float64
	TotalMeasurements int
	Min               float64
	Max               float64
	Avg               float64
	Units             string
	Description       string
	Source            string
	TstID             string
	UutType           string
	Status            string
	SerialNumber      string
	Category          string
	SubCategory       string
	SensorName        string
}

// ComputeStats derives TotalMeasurements, Min, Max and Avg from
// SensorReadings. Fields the source explicitly supplied are left untouched:
// a non-zero TotalMeasurements is preserved, and Min/Max/Avg are only
// derived when all three are unset.
func (s *MeasurementSection) ComputeStats() {
	if len(s.SensorReadings) == 0 {
		return
	}
	if s.TotalMeasurements == 0 {
		s.TotalMeasurements = len(s.SensorReadings)
	}
	if s.Min != 0 || s.Max != 0 || s.Avg != 0 {
		return
	}
	min, max := s.SensorReadings[0], s.SensorReadings[0]
	var sum float64
	for _, v := range s.SensorReadings {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	s.Min = min
	s.Max = max
	s.Avg = sum / float64(len(s.SensorReadings))
}

// StoredMeasurement is a persisted measurement section. It is created by the
// ingestion coordinator with EmbeddingPending status and a nil Embedding, and
// mutated exactly once by the embedding worker to set the embedding and flip
// the status to completed or failed.
type StoredMeasurement struct {
	MeasurementSection

	Id    ID
	LogId ID // owning LogFile

	// Name is a display name synthesized from the sensor name and test ID.
	Name string

	// EmbeddingText is a natural-language summary of the section, consumed
	// by the embedding model.
	EmbeddingText string

	// SummaryVector is the readings sequence padded/truncated to
	// SummaryVectorDim.
	SummaryVector []float32

	// Embedding is nil until the embedding worker populates it. When set it
	// has exactly EmbeddingDim elements and unit length.
	Embedding []float32

	EmbeddingStatus EmbeddingStatus

	InsertedAt time.Time // When the row was inserted into the database
	UpdatedAt  time.Time // When the row was last updated
}

// LogFile represents one uploaded instrumentation log file. It owns zero or
// more StoredMeasurement rows; deleting a LogFile cascades to its rows.
type LogFile struct {
	Id         ID
	Bucket     string
	ObjectPath string
	Owner      string
	Name       string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// SearchResult represents a similarity search hit with its relevance score.
type SearchResult struct {
	Measurement *StoredMeasurement
	Score       float32
}
