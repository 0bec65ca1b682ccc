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


// Package storage provides the storage abstraction layer for measurit.
//
// This package defines repository interfaces that decouple storage
// implementation from the ingestion, embedding and search logic. The badger
// subpackage provides the embedded database backend; the gcs subpackage
// provides the object-store collaborator for downloading uploaded files.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces to enforce abstraction and enable
// multiple storage backend implementations:
//
//	repo, err := badger.NewMeasurementRepository(backend)  // storage.MeasurementRepository
//
// # Ownership
//
// The ingestion coordinator exclusively creates LogFile and measurement
// rows. The embedding worker has update-only access to the embedding and
// embedding-status fields; it must never create or delete rows.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines. Writers mutate disjoint row sets per
// invocation (rows are claimed by id list, not by scan-and-lock).
package storage
