package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the persisted entities. The layout is a
// plain field-by-field encoding: varint numerics, length-prefixed strings and
// slices, timestamps as Unix microseconds. A nil vector round-trips as nil,
// which the storage layer relies on for the "embedding is null" guard.

// IDMUS serializes IDs.
var IDMUS = idSer{}

type idSer struct{}

func (idSer) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idSer) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idSer) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

// MeasurementMUS serializes StoredMeasurement rows.
var MeasurementMUS = measurementSer{}

type measurementSer struct{}

func (measurementSer) Size(m StoredMeasurement) (size int) {
	size += IDMUS.Size(m.Id)
	size += IDMUS.Size(m.LogId)
	size += ord.String.Size(m.Name)
	size += ord.String.Size(m.EmbeddingText)
	size += sizeFloat32Slice(m.SummaryVector)
	size += sizeFloat32Slice(m.Embedding)
	size += varint.Int.Size(int(m.EmbeddingStatus))
	size += sizeTime(m.InsertedAt)
	size += sizeTime(m.UpdatedAt)
	size += sizeFloat64Slice(m.SensorReadings)
	size += varint.Int.Size(m.TotalMeasurements)
	size += varint.Float64.Size(m.Min)
	size += varint.Float64.Size(m.Max)
	size += varint.Float64.Size(m.Avg)
	size += ord.String.Size(m.Units)
	size += ord.String.Size(m.Description)
	size += ord.String.Size(m.Source)
	size += ord.String.Size(m.TstID)
	size += ord.String.Size(m.UutType)
	size += ord.String.Size(m.Status)
	size += ord.String.Size(m.SerialNumber)
	size += ord.String.Size(m.Category)
	size += ord.String.Size(m.SubCategory)
	size += ord.String.Size(m.SensorName)
	return size
}

func (measurementSer) Marshal(m StoredMeasurement, bs []byte) (n int) {
	n += IDMUS.Marshal(m.Id, bs[n:])
	n += IDMUS.Marshal(m.LogId, bs[n:])
	n += ord.String.Marshal(m.Name, bs[n:])
	n += ord.String.Marshal(m.EmbeddingText, bs[n:])
	n += marshalFloat32Slice(m.SummaryVector, bs[n:])
	n += marshalFloat32Slice(m.Embedding, bs[n:])
	n += varint.Int.Marshal(int(m.EmbeddingStatus), bs[n:])
	n += marshalTime(m.InsertedAt, bs[n:])
	n += marshalTime(m.UpdatedAt, bs[n:])
	n += marshalFloat64Slice(m.SensorReadings, bs[n:])
	n += varint.Int.Marshal(m.TotalMeasurements, bs[n:])
	n += varint.Float64.Marshal(m.Min, bs[n:])
	n += varint.Float64.Marshal(m.Max, bs[n:])
	n += varint.Float64.Marshal(m.Avg, bs[n:])
	n += ord.String.Marshal(m.Units, bs[n:])
	n += ord.String.Marshal(m.Description, bs[n:])
	n += ord.String.Marshal(m.Source, bs[n:])
	n += ord.String.Marshal(m.TstID, bs[n:])
	n += ord.String.Marshal(m.UutType, bs[n:])
	n += ord.String.Marshal(m.Status, bs[n:])
	n += ord.String.Marshal(m.SerialNumber, bs[n:])
	n += ord.String.Marshal(m.Category, bs[n:])
	n += ord.String.Marshal(m.SubCategory, bs[n:])
	n += ord.String.Marshal(m.SensorName, bs[n:])
	return n
}

func (measurementSer) Unmarshal(bs []byte) (m StoredMeasurement, n int, err error) {
	var c int
	if m.Id, c, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.LogId, c, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.Name, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.EmbeddingText, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.SummaryVector, c, err = unmarshalFloat32Slice(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.Embedding, c, err = unmarshalFloat32Slice(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	var status int
	if status, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	m.EmbeddingStatus = EmbeddingStatus(status)
	if m.InsertedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.UpdatedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.SensorReadings, c, err = unmarshalFloat64Slice(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.TotalMeasurements, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.Min, c, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.Max, c, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.Avg, c, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	fields := []*string{
		&m.Units, &m.Description, &m.Source, &m.TstID, &m.UutType,
		&m.Status, &m.SerialNumber, &m.Category, &m.SubCategory, &m.SensorName,
	}
	for _, f := range fields {
		if *f, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return m, n + c, err
		}
		n += c
	}
	return m, n, nil
}

// LogFileMUS serializes LogFile records.
var LogFileMUS = logFileSer{}

type logFileSer struct{}

func (logFileSer) Size(l LogFile) (size int) {
	size += IDMUS.Size(l.Id)
	size += ord.String.Size(l.Bucket)
	size += ord.String.Size(l.ObjectPath)
	size += ord.String.Size(l.Owner)
	size += ord.String.Size(l.Name)
	size += sizeTime(l.InsertedAt)
	size += sizeTime(l.UpdatedAt)
	return size
}

func (logFileSer) Marshal(l LogFile, bs []byte) (n int) {
	n += IDMUS.Marshal(l.Id, bs[n:])
	n += ord.String.Marshal(l.Bucket, bs[n:])
	n += ord.String.Marshal(l.ObjectPath, bs[n:])
	n += ord.String.Marshal(l.Owner, bs[n:])
	n += ord.String.Marshal(l.Name, bs[n:])
	n += marshalTime(l.InsertedAt, bs[n:])
	n += marshalTime(l.UpdatedAt, bs[n:])
	return n
}

func (logFileSer) Unmarshal(bs []byte) (l LogFile, n int, err error) {
	var c int
	if l.Id, c, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return l, n + c, err
	}
	n += c
	fields := []*string{&l.Bucket, &l.ObjectPath, &l.Owner, &l.Name}
	for _, f := range fields {
		if *f, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return l, n + c, err
		}
		n += c
	}
	if l.InsertedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return l, n + c, err
	}
	n += c
	if l.UpdatedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return l, n + c, err
	}
	n += c
	return l, n, nil
}

// Timestamps are stored as Unix microseconds.

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func sizeFloat32Slice(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Float32.Size(f)
	}
	return size
}

func marshalFloat32Slice(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalFloat32Slice(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	v = make([]float32, length)
	var c int
	for i := 0; i < length; i++ {
		if v[i], c, err = varint.Float32.Unmarshal(bs[n:]); err != nil {
			return nil, n + c, err
		}
		n += c
	}
	return v, n, nil
}

func sizeFloat64Slice(v []float64) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Float64.Size(f)
	}
	return size
}

func marshalFloat64Slice(v []float64, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Float64.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalFloat64Slice(bs []byte) (v []float64, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	v = make([]float64, length)
	var c int
	for i := 0; i < length; i++ {
		if v[i], c, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
			return nil, n + c, err
		}
		n += c
	}
	return v, n, nil
}
