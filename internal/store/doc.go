// Package store keeps a SQLite history of compiled plans.
//
// Each record holds the plan's fingerprint, where it was compiled from, and
// its descriptor as RFC 8785 canonical JSON. Recording the same plan from the
// same source twice is a no-op, so the history can be replayed into
// repeatedly.
//
// # Ordering
//
// Records are ordered by seq, the insertion order. All queries use
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
