// Package auth is the browser-facing protection layer of the HTTP API.
//
// There are no user accounts: every browser gets an anonymous session cookie
// that binds it to its own in-memory workspace. The package provides
//
//   - SessionManager: scs sessions kept in memory only, never persisted
//   - CSRFMiddleware: gorilla/csrf protection for state-changing requests
//   - SecurityHeadersMiddleware: response hardening headers
//   - IPRateLimiter: per-client token buckets for expensive endpoints
//
// # Configuration
//
//	SESSION_LIFETIME=2h        # absolute cookie lifetime
//	SESSION_IDLE_TIMEOUT=30m   # idle expiry, also used by the workspace sweeper
//	SECURE_COOKIES=false       # set when served over HTTPS
//	CSRF_SECRET=<32 bytes>     # empty disables CSRF protection
package auth
