// Package embed generates vector embeddings for persisted measurement rows.
//
// Rows move through a small state machine: pending on insert, processing
// while a model call is in flight, then completed or failed. The worker owns
// every transition. Three rules keep the machine honest:
//
//   - Only rows with no embedding are ever fetched, so redelivering the
//     same IDs (retries, duplicate events) cannot re-embed a row.
//   - A row failure marks that row failed and moves on; one bad row never
//     poisons its batch.
//   - When an invocation's time budget expires, untouched rows stay pending
//     and any row caught mid-flight reverts to pending. Nothing is ever
//     left stuck in processing.
//
// Backfiller sweeps the whole database for pending rows, for recovery after
// crashes or missed hand-offs.
package embed
