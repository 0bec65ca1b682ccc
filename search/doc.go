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


// Package search finds measurements by embedding similarity.
//
// Scores are inner products against unit-normalized stored vectors, so they
// coincide with cosine similarity. The threshold is a strict lower bound
// and results come back most similar first. Rows without a completed
// embedding are invisible to search by construction.
package search
