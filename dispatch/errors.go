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


package dispatch

import "errors"

var (
	// ErrConnectionRequired is returned when a nil NATS connection is
	// passed to a constructor.
	ErrConnectionRequired = errors.New("nats connection is required")

	// ErrUnknownEmbedTarget is returned when an embed job addresses a
	// table or column layout this pipeline does not serve.
	ErrUnknownEmbedTarget = errors.New("unknown embed job target")
)
