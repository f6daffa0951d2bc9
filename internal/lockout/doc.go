// Package lockout implements threshold-triggered login suspension with
// progressive per-attempt delays.
//
// # State machine
//
// Per identifier: Active (no record) -> Warning (1..threshold-1
// failures, attempt allowed but delayed) -> Locked (>= threshold, all
// attempts rejected until the deadline) -> Active (deadline passed,
// record cleared lazily on the next Check).
//
// # What this package must NOT do
//
//   - Decide what counts as a failure — the gateway reports outcomes.
//   - Sleep; it computes delays, callers apply them.
//   - Import any sibling internal package except internal/store.
package lockout
