// Package client talks to the authentication REST API.
//
// # Overview
//
//  1. A transport-agnostic contract (see the Client interface): Captcha,
//     Login and Register.
//  2. A concrete JSON/HTTP implementation (see HTTPClient) rooted at a
//     configurable base URL:
//
//     GET  /captcha   → {captcha_id, captcha}
//     POST /login     {email, password, captcha_id, captcha_code} → {token, message}
//     POST /register  {email, username, password} → {message}
//
// # Error Handling
//
// Non-2xx answers become *APIError carrying the server's "error" text
// (see ServerMessage). Transport failures wrap ErrUnavailable; 401/403 answers
// also match ErrUnauthorized with errors.Is. Nothing is retried.
//
// Every request carries a fresh X-Request-ID that is also logged.
package client
