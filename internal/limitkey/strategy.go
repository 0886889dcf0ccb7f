package limitkey

import (
	"net/http"
	"strings"
)

// Strategy names which identity signal shards the rate limit.
type Strategy int

const (
	// StrategyAuto picks the best available signal per request:
	// API key > session > IP. User-Agent is never a shard -- it is
	// attacker-controlled and free to rotate.
	StrategyAuto Strategy = iota
	// StrategyIP shards by proxy-resolved client IP. The universal
	// fallback: always available.
	StrategyIP
	// StrategySession shards by session cookie, falling back to IP.
	StrategySession
	// StrategyAPIKey shards by Bearer token, falling back to IP.
	StrategyAPIKey
)

func (s Strategy) String() string {
	switch s {
	case StrategyIP:
		return "ip"
	case StrategySession:
		return "session"
	case StrategyAPIKey:
		return "apikey"
	default:
		return "auto"
	}
}

// ParseStrategy maps a configuration string onto a Strategy; unknown
// values resolve to StrategyAuto.
func ParseStrategy(s string) Strategy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ip":
		return StrategyIP
	case "session":
		return StrategySession
	case "apikey", "api-key":
		return StrategyAPIKey
	default:
		return StrategyAuto
	}
}

// Key namespaces. The namespace keeps keys derived from different
// signals disjoint even if their digests ever collided.
const (
	nsIP      = "ip"
	nsSession = "session"
	nsAPIKey  = "apikey"
)

// Deriver turns inbound requests into rate-limit keys.
type Deriver struct {
	hasher     *Hasher
	cookieName string
}

func NewDeriver(hasher *Hasher, sessionCookieName string) *Deriver {
	return &Deriver{hasher: hasher, cookieName: sessionCookieName}
}

// Key derives the rate-limit key for r under the given strategy.
// Total: every strategy bottoms out at the IP key.
func (d *Deriver) Key(r *http.Request, s Strategy) string {
	ns, raw := d.signal(r, s)
	return ns + ":" + d.hasher.Hash(raw)
}

// IPKey derives "ip:<digest>" from the resolved client IP.
func (d *Deriver) IPKey(r *http.Request) string { return d.Key(r, StrategyIP) }

// BestKey picks the highest-priority available signal:
// API key > session > IP.
func (d *Deriver) BestKey(r *http.Request) string { return d.Key(r, StrategyAuto) }

// KeysWithRotation derives every key that currently identifies r under
// the given strategy: one per active pepper (current, then previous
// during a rotation window). External limiters that persist counters
// across deploys match any of these.
func (d *Deriver) KeysWithRotation(r *http.Request, s Strategy) []string {
	ns, raw := d.signal(r, s)
	digests := d.hasher.HashWithRotation(raw)
	out := make([]string, len(digests))
	for i, dg := range digests {
		out[i] = ns + ":" + dg
	}
	return out
}

// signal resolves the (namespace, raw value) pair the key is derived
// from, applying the same fallback chain as Key.
func (d *Deriver) signal(r *http.Request, s Strategy) (string, string) {
	switch s {
	case StrategyIP:
		return nsIP, clientIP(r)
	case StrategySession:
		if sid := sessionID(r, d.cookieName); sid != "" {
			return nsSession, sid
		}
		return nsIP, clientIP(r)
	case StrategyAPIKey:
		if tok := bearerToken(r); tok != "" {
			return nsAPIKey, tok
		}
		return nsIP, clientIP(r)
	default:
		if tok := bearerToken(r); tok != "" {
			return nsAPIKey, tok
		}
		if sid := sessionID(r, d.cookieName); sid != "" {
			return nsSession, sid
		}
		return nsIP, clientIP(r)
	}
}
