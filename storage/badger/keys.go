package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/measurit/core"
)

// Key prefixes for different data types
const (
	measurementPrefix    = "msrec"
	measurementLogPrefix = "msrecl"
	measurementIDSeq     = "msrecseq"
	logFilePrefix        = "logrec"
)

// makeMeasurementKey generates a key for a measurement by ID.
func makeMeasurementKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", measurementPrefix, id))
}

// makeMeasurementLogKey generates a composite key for the log ownership
// index. Format: prefix:logID:measurementID
func makeMeasurementLogKey(logID, measurementID core.ID) []byte {
	prefix := measurementLogPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(logID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(measurementID))
	return buf
}

// makePartialMeasurementLogKey generates a partial key for iterating one
// log's measurements. Format: prefix:logID
func makePartialMeasurementLogKey(logID core.ID) []byte {
	prefix := measurementLogPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(logID))
	return buf
}

// makeLogFileKey generates a key for a log file record by ID.
func makeLogFileKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", logFilePrefix, id))
}
