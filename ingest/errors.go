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


package ingest

import "errors"

var (
	// ErrNoValidMeasurements is returned when a log yields no parseable
	// measurement sections. Nothing is written in that case.
	ErrNoValidMeasurements = errors.New("no valid measurements found in log")

	// ErrMeasurementRepositoryRequired is returned when a nil measurement
	// repository is passed to NewCoordinator.
	ErrMeasurementRepositoryRequired = errors.New("measurement repository is required")

	// ErrLogRepositoryRequired is returned when a nil log repository is
	// passed to NewCoordinator.
	ErrLogRepositoryRequired = errors.New("log repository is required")

	// ErrObjectStoreRequired is returned by IngestObject when the
	// coordinator was built without an object store.
	ErrObjectStoreRequired = errors.New("object store is required")

	// ErrBatchWriteFailed wraps storage errors from a batch insert.
	ErrBatchWriteFailed = errors.New("batch write failed")
)
