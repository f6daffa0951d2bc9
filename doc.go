// Package authcore implements the authentication and session-security
// core: token pair issuance and verification, brute-force lockout with
// progressive delay, fixed-window rate limiting, session fingerprint
// binding, legacy-password migration, and a bounded security event
// journal with heuristic anomaly detection.
//
// The package is designed for concurrent server workloads: Gateway
// methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Gateway], [Builder],
// [Config], and value types (AuthResult, LoginResult, AuditEvent).
// Manager internals — storage contracts, counters, the journal — live
// under internal/ and are never exported. The identity store, credential
// persistence, and HTTP handlers are external collaborators: they call
// in for verdicts and credential issuance, nothing more.
//
// # Known limitations
//
//   - No server-side refresh-token revocation list: a superseded
//     refresh token stays cryptographically valid until it expires.
//     Logout-everywhere therefore requires rotating the signing secret.
//   - Fingerprint binding is a hijacking tripwire, not an identity
//     guarantee; mismatches surface as a distinct rejection so hosts
//     can force re-login instead of hard-failing.
//
// # What this package must NOT do
//
//   - Store principals or credentials (the PrincipalStore owns both;
//     the single write-back is the password-hash migration).
//   - Expose Redis clients or internal store contracts in its API.
//   - Sign tokens with defaulted secrets — configuration fails closed.
package authcore
