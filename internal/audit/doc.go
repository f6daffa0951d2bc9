// Package audit implements the bounded security event journal, the
// heuristic anomaly detector that reads it, and async sink delivery.
//
// # Components
//
//   - [Log] — fixed-capacity ring journal with newest-first reads and
//     a per-identifier anomaly scan.
//   - [Sink] — interface for external event consumers (channel, JSON
//     writer, no-op).
//   - [Dispatcher] — buffered async relay with drop-if-full accounting.
//
// # What this package must NOT do
//
//   - Decide which events to emit — the gateway does.
//   - Block callers on sink delivery.
//   - Import any sibling internal package.
package audit
