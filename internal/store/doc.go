// Package store provides SQLite-backed durable storage for migration
// status records.
//
// The ledger holds one row per migration that has been through
// generation: its id, name, sequence number, and the canonical
// fingerprint of its contents at that time. Comparing the recorded
// fingerprint against the current file classifies the migration as
// in sync, changed, or unapplied.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Fingerprints are computed in internal/migrate using RFC 8785
// canonical JSON and SHA-256 with domain separation.
package store
