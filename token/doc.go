// Package token manages access/refresh token pair issuance,
// verification, and rotation with independent HS256 signing secrets
// and strict validation semantics.
//
// Access tokens are short-lived and fully stateless; refresh tokens
// carry minimal claims and exist only to mint new pairs, re-fetching
// the principal so permission changes propagate without re-login.
package token
