// Package pepper resolves the server-side HMAC pepper that keys
// rate-limit identity hashing.
//
// The pepper is a process-wide secret, distinct from a per-record salt:
// without it, hashed rate-limit keys could be correlated offline by
// brute-forcing the (small) IP space. Resolution is fail-fast in
// production: a missing or weak pepper stops startup instead of silently
// weakening rate limiting. Outside production a labeled insecure
// fallback is substituted with a one-time warning.
package pepper
