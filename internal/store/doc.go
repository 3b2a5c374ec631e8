// Package store provides SQLite-backed persistence for canonical record
// instances.
//
// Every instance is stored once per (type, id) as its encoded form in
// RFC 8785 canonical JSON, alongside the content hash computed by
// ir.RecordHash. Nested records are stored as their own rows and the
// parent body holds their identifiers.
//
// # Critical Patterns
//
// Idempotent Writes
//   - Put writes the record graph post-order in one transaction
//   - Rewriting identical content is a no-op
//   - Different content under an existing (type, id) is ErrConflict
//
// Deterministic Query Results
//   - Listings use ORDER BY seq ASC, id COLLATE BINARY ASC
//   - seq is the store's own write counter, never a timestamp
//   - Find compiles a queryir.Query through querysql and keeps the same order
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
