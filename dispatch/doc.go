// Package dispatch carries pipeline triggers over NATS.
//
// Two subjects drive the system: upload events announce a new log file in
// object storage, and embed jobs hand persisted row IDs to an embedding
// worker. Delivery is at-least-once and handlers lean on the row-level
// idempotence guards downstream, so neither duplicate uploads nor
// redelivered embed jobs corrupt state.
package dispatch
