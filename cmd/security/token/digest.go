package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// DigestLen is the length of a Digest string (hex-encoded HMAC-SHA256).
const DigestLen = 64

// Digest returns the HMAC-SHA256 hex digest of a token string under the codec's digest key.
// Refresh tokens are stored as digests; the token itself never reaches the database.
func (c *Codec) Digest(raw string) string {
	m := hmac.New(sha256.New, c.digestKey)
	_, _ = m.Write([]byte(raw))
	return hex.EncodeToString(m.Sum(nil))
}

// DigestEqual compares two digests in constant time. Anything that is not DigestLen long is unequal.
func DigestEqual(a, b string) bool {
	if len(a) != DigestLen || len(b) != DigestLen {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
