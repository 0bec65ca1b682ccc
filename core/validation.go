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

import "fmt"

// ValidateSection validates a MeasurementSection according to domain rules.
//
// Validation rules:
//   - SensorReadings must not be empty
//   - SensorName must not be empty
//
// NOT validated (populated later or optional):
//   - Min/Max/Avg (derived when absent)
//   - metadata strings (each has a documented default)
//
// Sections failing validation are dropped before reaching persistence.
func ValidateSection(section *MeasurementSection) error {
	if section == nil {
		return fmt.Errorf("%w: section is nil", ErrInvalidSection)
	}

	if len(section.SensorReadings) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSection, ErrEmptyReadings)
	}

	if section.SensorName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSection, ErrEmptySensorName)
	}

	return nil
}

// ValidateEmbeddingStatus validates that an EmbeddingStatus has a valid value.
func ValidateEmbeddingStatus(status EmbeddingStatus) error {
	switch status {
	case EmbeddingPending, EmbeddingProcessing, EmbeddingCompleted, EmbeddingFailed:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidEmbeddingStatus, status)
	}
}
