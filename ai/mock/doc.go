// Package mock provides deterministic test doubles for the ai interfaces.
//
// The default embedder derives a unit vector from an FNV hash of the input
// text, so the same text always embeds to the same vector and tests never
// need a live embedding service. Function fields allow injecting failures
// or custom vectors per test.
package mock
