// Package common contains constants and small helpers shared by the
// authkeeper client packages.
package common

// RequestIDHeader is the HTTP header that carries the per-request id on
// outbound API calls.
const RequestIDHeader = "X-Request-ID"

// DefaultTokenKey is the fixed storage key the session token is kept under.
const DefaultTokenKey = "session_token"

// DefaultServerURL is the base URL of the authentication API used when
// nothing else is configured.
const DefaultServerURL = "http://localhost:3000"
