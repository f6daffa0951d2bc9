// Package rate implements fixed-window request counting per
// (identifier, action class).
//
// # Window semantics
//
// One JSON window record per identifier, mutated through store CAS so
// check-and-increment is indivisible. Key prefixes separate action
// classes:
//   - login: — login attempts
//   - api:   — authenticated request throughput
//
// # What this package must NOT do
//
//   - Decide consequences of a rejection — the gateway does.
//   - Import any sibling internal package except internal/store.
package rate
