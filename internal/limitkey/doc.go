// Package limitkey derives the partition key a rate limiter counts
// requests against, without ever storing raw client identifiers.
//
// Each key is "<namespace>:<digest>" where namespace names the identity
// signal (ip, session, apikey) and digest is an HMAC-SHA256 of the raw
// value keyed by the server-side pepper, truncated to 16 hex characters.
// The pepper makes keys unlinkable across rotations: without it, the
// digest of an IP could be recomputed offline and correlated.
//
// Strategy selection is total: every strategy falls back to the IP key,
// so a request always gets a key. A malformed session cookie or Bearer
// token is treated as "signal absent", not as an error.
package limitkey
