// Package fingerprint derives stable hashes from connection attributes
// and binds them to sessions on first use as a session-theft tripwire.
//
// # What this package must NOT do
//
//   - Treat a mismatch as proof of hijacking — it is a heuristic.
//   - Import any sibling internal package except internal/store.
package fingerprint
