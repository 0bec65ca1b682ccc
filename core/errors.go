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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidSection indicates a MeasurementSection failed validation.
	ErrInvalidSection = errors.New("invalid measurement section")

	// ErrEmptyReadings indicates the SensorReadings field is empty.
	ErrEmptyReadings = errors.New("sensor readings cannot be empty")

	// ErrEmptySensorName indicates the SensorName field is empty.
	ErrEmptySensorName = errors.New("sensor name cannot be empty")

	// ErrInvalidEmbeddingStatus indicates an invalid EmbeddingStatus value.
	ErrInvalidEmbeddingStatus = errors.New("invalid embedding status")

	// ErrEmptyVector indicates a vector normalization was attempted on an
	// empty sequence.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrInvalidDimension indicates a non-positive target dimension.
	ErrInvalidDimension = errors.New("target dimension must be positive")
)
