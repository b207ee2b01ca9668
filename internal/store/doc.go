// Package store provides SQLite-backed storage for sequences and
// playback runs.
//
// The store keeps:
//   - Sequences: serialized XML keyed by its content hash
//   - Runs: one playback of a sequence, identified by a UUIDv7
//   - Effects: the ordered trace of a run
//
// # Ordering
//
// Effects are ordered by their logical seq, never by timestamps, so a
// stored trace reads back exactly as it was recorded. Runs list in id
// order; UUIDv7 ids sort by creation time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Sequence and trace hashes come from internal/ir and use domain
// separated SHA-256.
package store
