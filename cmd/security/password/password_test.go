package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1
	return cfg
}

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(testConfig())

	enc, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(enc, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected encoding: %q", enc)
	}
	if !h.Verify("secret1", enc) {
		t.Fatalf("expected match")
	}
	if h.Verify("secret2", enc) {
		t.Fatalf("expected mismatch")
	}
}

func TestHash_Salted(t *testing.T) {
	h := NewHasher(testConfig())

	a, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	b, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password must differ")
	}
}

func TestVerify_MalformedHashIsFalse(t *testing.T) {
	h := NewHasher(testConfig())

	cases := []string{
		"",
		"not-a-hash",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHQ$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdHNhbHQ$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$a2V5",
		"$2b$10$short",
	}
	for _, enc := range cases {
		if h.Verify("secret1", enc) {
			t.Fatalf("Verify(%q) = true, want false", enc)
		}
	}

	if _, err := h.Check("secret1", "not-a-hash"); err != ErrInvalidHash {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
}

func TestVerify_RejectsExcessiveCost(t *testing.T) {
	strong := testConfig()
	strong.Params.MemoryKiB = 64 * 1024
	enc, err := NewHasher(strong).Hash("secret1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	weak := NewHasher(testConfig())
	if weak.Verify("secret1", enc) {
		t.Fatalf("hash with 8x memory must not be verified")
	}
}

func TestVerify_LegacyBcrypt(t *testing.T) {
	h := NewHasher(testConfig())

	raw, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	enc := string(raw)

	if !h.Verify("secret1", enc) {
		t.Fatalf("expected bcrypt match")
	}
	if h.Verify("secret2", enc) {
		t.Fatalf("expected bcrypt mismatch")
	}
	if !h.NeedsRehash(enc) {
		t.Fatalf("bcrypt hashes must be upgraded")
	}
}

func TestNeedsRehash_Argon2id(t *testing.T) {
	cheap := NewHasher(testConfig())
	enc, err := cheap.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if cheap.NeedsRehash(enc) {
		t.Fatalf("same params must not need rehash")
	}

	stronger := testConfig()
	stronger.Params.Iterations = 2
	if !NewHasher(stronger).NeedsRehash(enc) {
		t.Fatalf("weaker iterations must need rehash")
	}
	if cheap.NeedsRehash("garbage") {
		t.Fatalf("garbage is not rehashable")
	}
}

func TestValidate_MinMax(t *testing.T) {
	cfg := testConfig()
	cfg.Policy.MinLength = 6
	cfg.Policy.MaxLength = 10

	if err := cfg.Validate("short"); err != ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := cfg.Validate("this one is too long"); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if err := cfg.Validate("secret1"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	h := NewHasher(cfg)
	if _, err := h.Hash("tiny"); !IsPolicyViolation(err) {
		t.Fatalf("Hash must enforce policy, got %v", err)
	}
}

func TestPolicy_RejectVeryWeak(t *testing.T) {
	cfg := testConfig()
	cfg.Policy.RejectVeryWeak = true

	for _, pw := range []string{"password", "aaaaaaa", "123456789", "abcdefg", "QWERTY"} {
		if err := cfg.Validate(pw); err != ErrWeakPassword {
			t.Fatalf("Validate(%q): expected ErrWeakPassword, got %v", pw, err)
		}
	}
	for _, pw := range []string{"secret1", "a-very-ok-pass", "9081726354x"} {
		if err := cfg.Validate(pw); err != nil {
			t.Fatalf("Validate(%q): expected ok, got %v", pw, err)
		}
	}
}
