// Package auth is the authentication and session core of the CMS. It
// verifies credentials, opens revocable server sessions, issues signed
// tokens and keeps an audit trail of every attempt.
//
// Login:
//   - Auther.Authenticate rate limits on origin and email, looks the identity
//     up through an IdentityProvider, checks the bcrypt hash and, on success,
//     returns a session token plus an HS256 token in a LoginResult. Unknown
//     emails and wrong passwords produce the same result.
//   - Failed attempts never return an error. The error return is reserved for
//     store failures, which carry the STORE_UNAVAILABLE text code.
//
// Sessions:
//   - SessionStore persists opaque 64 character tokens with a fixed expiry.
//     The session is the source of truth for revocation, use Logout or
//     RevokeSessions to end access. Signed tokens stay valid until they expire.
//   - SessionSweeper purges expired rows on an interval.
//
// Activity:
//   - ActivitySink receives login, logout and revocation entries. Sinks are
//     best effort, errors are logged and never block authentication.
//     ActivityLogger persists entries through bun.
//
// Rate limiting:
//   - MemoryRateLimiter is a fixed window counter for a single process,
//     RedisRateLimiter shares the window across instances.
package auth
