// Package password implements credential hashing and multi-generation
// verification with bcrypt as the current scheme.
//
// # Migration path
//
// Real account stores accumulate mixed hash generations. Verify
// authenticates bcrypt rows directly and still accepts legacy hex
// digests and a plaintext fallback column, returning NeedsMigration so
// the caller re-hashes under bcrypt on the next successful login. No
// bulk migration required.
//
// # What this package must NOT do
//
//   - Store or retrieve credentials — callers supply hashes.
//   - Log plaintext passwords.
//   - Import any other authcore package.
package password
