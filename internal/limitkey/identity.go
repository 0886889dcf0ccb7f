package limitkey

import (
	"net"
	"net/http"
	"strings"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/httpmw"
)

// Session cookie sanity bounds. Values outside these are treated as
// signal-absent, never as errors.
const (
	minSessionIDLen = 8
	maxSessionIDLen = 256
)

// Literal garbage that frontend bugs ship as cookie values. Matching one
// of these means "no session", not "a session named undefined".
var sessionSentinels = map[string]bool{
	"undefined":       true,
	"null":            true,
	"[object Object]": true,
}

// clientIP returns the proxy-resolved client IP from the request
// context (set by httpmw.ClientIP), falling back to RemoteAddr. Total:
// always returns something usable as a hash input.
func clientIP(r *http.Request) string {
	if ip := httpmw.ClientIPFromContext(r.Context()); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "0.0.0.0"
}

// sessionID pulls a session identifier from the named cookie. Returns
// "" unless the value passes basic format sanity (length bounds, not a
// frontend sentinel).
//
// This trusts the raw cookie bytes. It is only safe as a rate-limit
// shard when the session cookie is tamper-proof (signed) upstream --
// otherwise a client can mint fresh identities per request. That
// precondition belongs to the session layer; it cannot be enforced here.
func sessionID(r *http.Request, cookieName string) string {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	v := c.Value
	if len(v) < minSessionIDLen || len(v) > maxSessionIDLen {
		return ""
	}
	if sessionSentinels[v] {
		return ""
	}
	return v
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme match is case-insensitive per RFC 7235. Returns "" when the
// header is absent, carries another scheme, or has an empty token.
//
// Keying on the raw token is safe only when derivation runs after
// authentication (or pre-auth consumption of the quota is an accepted
// risk): an unauthenticated client can otherwise rotate tokens to dodge
// the limiter.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	const scheme = "bearer "
	if len(h) <= len(scheme) || !strings.EqualFold(h[:len(scheme)], scheme) {
		return ""
	}
	return strings.TrimSpace(h[len(scheme):])
}
