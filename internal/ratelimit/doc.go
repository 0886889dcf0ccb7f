// Package ratelimit is middleware for keyed request rate limiting.
//
// # Simple in-memory implementation, not shared between instances or distributed
//
// Requests are sharded by an opaque caller-supplied key (derived in
// internal/limitkey from API key, session, or client IP), each key
// getting its own token bucket.
//
// What this does protect against:
//   - a single identity flooding the app (connection/goroutine exhaustion)
//   - gives observability insight into who/what/when/where/how (you still have to figure out why on your own..)
//   - single-log entry per offender to prevent log spam, metrics for counting total denied requests
//
// What this does NOT protect against:
//   - distributed attacks across many identities
//   - bandwidth-bill attacks, inbound data is already accepted by the time this runs
//
// This is designed to be a simple, self contained solution for defense in depth
// with upstream filtering. Because keys can be minted by the client (new session
// cookie, new token), the visitor map carries a hard capacity ceiling: once full,
// requests for unseen keys are rejected rather than growing the map, and the
// OnCapacity hook fires once so the condition is visible without log spam.
package ratelimit
