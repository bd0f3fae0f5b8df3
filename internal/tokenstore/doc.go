// Package tokenstore owns the persisted session token of the MooseDB console.
//
// A [TokenStore] holds at most one opaque token. It stamps every value with the
// session cookie attributes (Max-Age, Path, SameSite, Secure) and hands it to a
// [Medium], which is responsible for persisting the value and for enforcing its
// expiry. The application only ever asks whether a token is present.
//
// Supported media:
//   - Jar: in-memory cookie jar bound to an origin, the closest equivalent of a browser
//   - File: local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Env: read-only environment variable access (requires external secret management)
//   - HTTP: the cookie of a single server-side request/response pair
//
// Logging in requires writable storage (jar, file, keyring or HTTP).
package tokenstore
