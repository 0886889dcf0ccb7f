package secpolicy

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// MinNonceLen is the single authoritative minimum nonce length: 32
// alphanumeric characters, i.e. at least 128 bits of entropy when hex
// encoded. A guessable nonce defeats the whole point of nonce-gated CSP,
// so we hold validation to the 128-bit collision-resistance bar rather
// than the weaker 16-character variant sometimes seen in the wild.
const MinNonceLen = 32

var nonceRe = regexp.MustCompile(`^[A-Za-z0-9]{32,}$`)

// NewNonce returns a fresh per-response CSP nonce: a random UUIDv4 with
// the hyphens stripped (32 hex characters, 122 random bits, which clears
// MinNonceLen). Nonces are never persisted and live for exactly one
// response.
func NewNonce() string {
	u, err := uuid.NewRandom()
	if err != nil {
		// uuid reads crypto/rand; if that failed, retry the raw source
		// directly rather than ever falling back to math/rand.
		var b [16]byte
		if _, err := rand.Read(b[:]); err != nil {
			return ""
		}
		return hex.EncodeToString(b[:])
	}
	return strings.ReplaceAll(u.String(), "-", "")
}

// ValidNonce reports whether candidate meets the nonce invariant:
// alphanumeric only and at least MinNonceLen characters.
func ValidNonce(candidate string) bool {
	return nonceRe.MatchString(candidate)
}
