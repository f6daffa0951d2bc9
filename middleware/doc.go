// Package middleware exposes HTTP adapters over the authcore Gateway:
// a per-request guard, token cookie issuance, and rejection rendering.
//
// # Components
//
//   - [Guard] — cookie/bearer extraction, refresh-and-reissue, context
//     injection of the verdict.
//   - [SetTokenCookies] / [ClearTokenCookies] — HTTP-only, same-site
//     cookies whose Max-Age derives from the signed token TTLs.
//   - [WriteRejection] — machine-readable rejection bodies that keep
//     locked-account and wrong-password responses indistinguishable to
//     external clients.
//
// # What this package must NOT do
//
//   - Parse or create tokens (the Gateway owns all decisions).
//   - Reveal lockout state on the wire.
package middleware
