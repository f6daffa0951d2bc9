// Package store defines the minimal key-value contract shared by the
// lockout, rate-limit, and fingerprint managers, with in-memory and
// Redis-backed implementations.
//
// # Design
//
// Managers persist small JSON records and mutate them through
// CompareAndSwap loops, so "read count, compare to threshold, write"
// is atomic on every backend. The memory backend serializes CAS under
// a single mutex; the Redis backend uses WATCH/MULTI optimistic
// transactions. TTLs are garbage collection only — records carry their
// own authoritative timestamps.
//
// # What this package must NOT do
//
//   - Interpret record contents (managers own their encodings).
//   - Import any sibling internal package.
package store
