package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent_Deterministic(t *testing.T) {
	id1 := IDFromContent("bucket/logs/run-42.txt")
	id2 := IDFromContent("bucket/logs/run-42.txt")
	id3 := IDFromContent("bucket/logs/run-43.txt")

	assert.Equal(t, id1, id2, "identical content must produce identical IDs")
	assert.NotEqual(t, id1, id3, "different content should produce different IDs")
}

func TestComputeStats(t *testing.T) {
	section := &MeasurementSection{
		SensorReadings: []float64{1, 2, 3},
	}
	section.ComputeStats()

	assert.Equal(t, 3, section.TotalMeasurements)
	assert.InDelta(t, 1.0, section.Min, 1e-9)
	assert.InDelta(t, 3.0, section.Max, 1e-9)
	assert.InDelta(t, 2.0, section.Avg, 1e-9)
}

func TestComputeStats_PreservesSuppliedValues(t *testing.T) {
	section := &MeasurementSection{
		SensorReadings:    []float64{1, 2, 3},
		TotalMeasurements: 10,
		Min:               0.1,
		Max:               9.9,
		Avg:               5.0,
	}
	section.ComputeStats()

	assert.Equal(t, 10, section.TotalMeasurements, "source override must win")
	assert.InDelta(t, 0.1, section.Min, 1e-9)
	assert.InDelta(t, 9.9, section.Max, 1e-9)
	assert.InDelta(t, 5.0, section.Avg, 1e-9)
}

func TestComputeStats_EmptyReadings(t *testing.T) {
	section := &MeasurementSection{}
	section.ComputeStats()

	assert.Equal(t, 0, section.TotalMeasurements)
}

func TestEmbeddingStatus_String(t *testing.T) {
	tests := []struct {
		status   EmbeddingStatus
		expected string
	}{
		{EmbeddingPending, "pending"},
		{EmbeddingProcessing, "processing"},
		{EmbeddingCompleted, "completed"},
		{EmbeddingFailed, "failed"},
		{EmbeddingStatus(0), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.status.String())
	}
}

func TestMeasurementMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	original := StoredMeasurement{
		MeasurementSection: MeasurementSection{
			SensorReadings:    []float64{0.52, 0.48, 0.61},
			TotalMeasurements: 3,
			Min:               0.48,
			Max:               0.61,
			Avg:               0.5366,
			Units:             "Watts",
			Description:       "measurements for rail 3V3",
			Source:            "bench-7",
			TstID:             "TST-1001",
			UutType:           "board-a",
			Status:            "passed",
			SerialNumber:      "SN-0042",
			Category:          "power",
			SubCategory:       "OTHER",
			SensorName:        "rail 3V3",
		},
		Id:              42,
		LogId:           7,
		Name:            "rail 3V3 (TST-1001)",
		EmbeddingText:   "Sensor rail 3V3: measurements for rail 3V3",
		SummaryVector:   []float32{0.52, 0.48, 0.61},
		Embedding:       nil,
		EmbeddingStatus: EmbeddingPending,
		InsertedAt:      now,
		UpdatedAt:       now,
	}

	buf := make([]byte, MeasurementMUS.Size(original))
	n := MeasurementMUS.Marshal(original, buf)
	require.Equal(t, len(buf), n, "marshal must fill the sized buffer exactly")

	decoded, n, err := MeasurementMUS.Unmarshal(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)

	assert.Equal(t, original, decoded)
	assert.Nil(t, decoded.Embedding, "nil embedding must round-trip as nil")
}

func TestLogFileMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	original := LogFile{
		Id:         IDFromContent("uploads/run-42.txt"),
		Bucket:     "uploads",
		ObjectPath: "run-42.txt",
		Owner:      "bench-7",
		Name:       "run-42.txt",
		InsertedAt: now,
		UpdatedAt:  now,
	}

	buf := make([]byte, LogFileMUS.Size(original))
	n := LogFileMUS.Marshal(original, buf)
	require.Equal(t, len(buf), n)

	decoded, _, err := LogFileMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}
