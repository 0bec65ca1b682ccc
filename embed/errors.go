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


package embed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbedderRequired is returned when a nil embedder is passed to NewWorker.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrMeasurementRepositoryRequired is returned when a nil repository is
	// passed to NewWorker.
	ErrMeasurementRepositoryRequired = errors.New("measurement repository is required")

	// ErrEmptyEmbeddingText marks rows that carry nothing to embed. Such
	// rows fail immediately without a model call.
	ErrEmptyEmbeddingText = errors.New("row has no embedding text")
)
