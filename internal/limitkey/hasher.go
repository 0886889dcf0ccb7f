package limitkey

import (
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/cryptoutil"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/pepper"
)

// DigestLen is the hex width of a derived key digest: 16 hex characters,
// 64 bits. Wide enough that collisions between active clients are
// negligible, short enough to keep limiter map keys cheap.
const DigestLen = 16

// HMACKey derives the truncated digest for input keyed by pep.
// Deterministic and pure: same (input, pepper) always yields the same
// digest; a different pepper yields an unrelated one.
func HMACKey(input, pep string) string {
	return cryptoutil.HMACSHA256Hex(pep, input)[:DigestLen]
}

// Hasher binds key derivation to a resolved pepper, including the
// previous pepper during rotation windows.
type Hasher struct {
	pep pepper.Pepper
}

func NewHasher(p pepper.Pepper) *Hasher {
	return &Hasher{pep: p}
}

// Hash returns the digest for input under the current pepper.
func (h *Hasher) Hash(input string) string {
	return HMACKey(input, h.pep.Value)
}

// HashWithRotation returns every digest that currently identifies input:
// one under the active pepper, plus one under the previous pepper when a
// rotation window is open. Callers must treat the slice as "any of these
// matches" so both derivations count against the same logical identity
// during the grace period.
func (h *Hasher) HashWithRotation(input string) []string {
	out := []string{h.Hash(input)}
	if h.pep.Previous != "" {
		out = append(out, HMACKey(input, h.pep.Previous))
	}
	return out
}
