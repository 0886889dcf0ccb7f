// Package secpolicy builds the response security header set: per-mode
// Content-Security-Policy with per-request nonces, HSTS, frame options,
// permissions policy, and the cross-origin isolation headers.
//
// Everything here is a pure function of (mode, nonce, environment). The
// directive set is rebuilt for every response because it embeds the nonce;
// nothing is cached across requests. Builders are safe for concurrent use
// from any number of request goroutines.
package secpolicy
