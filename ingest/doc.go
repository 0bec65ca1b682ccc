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


// Package ingest coordinates the synchronous half of the measurement
// pipeline: parse a raw log, persist the sections as measurement rows,
// then hand the new row IDs off for embedding.
//
// Persistence is batched. Each batch is one storage transaction, so a
// failure partway through a large log leaves the earlier batches committed
// and the rest unwritten. Downstream consumers must tolerate seeing a
// file's rows appear incrementally; the embedding side already does, since
// every row carries its own status.
//
// The embedding hand-off is fire-and-forget. Ingestion never waits on the
// model, and an embedding failure never unwinds an insert.
package ingest
