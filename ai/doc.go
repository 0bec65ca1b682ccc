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


// Package ai defines the embedding service abstractions used by the
// measurement pipeline.
//
// The package itself contains only interfaces and configuration. Concrete
// implementations live in subpackages:
//
//   - ai/openai: production implementation against any OpenAI-compatible
//     embedding API (Ollama, LocalAI, vLLM, OpenAI itself)
//   - ai/mock: deterministic test doubles
//
// Embedding is the slow, unreliable edge of the system, so everything
// upstream of it talks to the Embedder interface rather than a concrete
// client. Measurement rows carry an embedding status precisely because
// calls through this interface can fail or time out.
package ai
