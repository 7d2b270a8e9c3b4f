package password

import "strings"

// Hasher is the process-wide password hasher. It is immutable after construction.
type Hasher struct {
	cfg Config
}

// NewHasher returns a Hasher for cfg.
func NewHasher(cfg Config) *Hasher {
	return &Hasher{cfg: cfg}
}

// Config returns the configuration the hasher was built with.
func (h *Hasher) Config() Config { return h.cfg }

// Hash validates the password policy and returns a salted Argon2id hash.
func (h *Hasher) Hash(password string) (string, error) {
	if err := h.cfg.Validate(password); err != nil {
		return "", err
	}
	return hashArgon2id(h.cfg.Params, password)
}

// Verify reports whether password matches encoded. Unknown or malformed hashes yield false.
func (h *Hasher) Verify(password, encoded string) bool {
	ok, err := h.check(password, encoded)
	return err == nil && ok
}

// Check is Verify with the malformed-hash case surfaced as ErrInvalidHash.
func (h *Hasher) Check(password, encoded string) (bool, error) {
	return h.check(password, encoded)
}

func (h *Hasher) check(password, encoded string) (bool, error) {
	encoded = strings.TrimSpace(encoded)
	switch {
	case strings.HasPrefix(encoded, argon2idPrefix):
		return verifyArgon2id(h.cfg.Params, encoded, password)
	case isBcrypt(encoded):
		return verifyBcrypt(encoded, password)
	default:
		return false, ErrInvalidHash
	}
}

// NeedsRehash reports whether encoded should be replaced with a hash at the current cost.
func (h *Hasher) NeedsRehash(encoded string) bool {
	encoded = strings.TrimSpace(encoded)
	if isBcrypt(encoded) {
		return true
	}
	p, _, _, err := decodeArgon2id(encoded)
	if err != nil {
		return false
	}
	want := h.cfg.Params
	return p.MemoryKiB < want.MemoryKiB ||
		p.Iterations < want.Iterations ||
		p.KeyLength < want.KeyLength
}
