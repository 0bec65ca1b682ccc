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


package storage

import (
	"github.com/poiesic/measurit/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalMeasurement serializes a StoredMeasurement to bytes.
func MarshalMeasurement(m *core.StoredMeasurement) []byte {
	buf := make([]byte, core.MeasurementMUS.Size(*m))
	core.MeasurementMUS.Marshal(*m, buf)
	return buf
}

// UnmarshalMeasurement deserializes a StoredMeasurement from bytes.
func UnmarshalMeasurement(data []byte) (*core.StoredMeasurement, error) {
	m, _, err := core.MeasurementMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MarshalLogFile serializes a LogFile to bytes.
func MarshalLogFile(l *core.LogFile) []byte {
	buf := make([]byte, core.LogFileMUS.Size(*l))
	core.LogFileMUS.Marshal(*l, buf)
	return buf
}

// UnmarshalLogFile deserializes a LogFile from bytes.
func UnmarshalLogFile(data []byte) (*core.LogFile, error) {
	l, _, err := core.LogFileMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
