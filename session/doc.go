// Package session issues and verifies the signed, time-limited credential
// that gates the editor API.
//
// A caller proves knowledge of a shared secret once through Login and
// receives an HS256 JWT carrying a display name and an expiry. Every later
// request presents that token to Verify, which yields the identity or
// ErrUnauthenticated. Nothing is stored server side; a credential is only
// revoked by expiring.
package session
