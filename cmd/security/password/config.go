package password

import (
	"fmt"
	"math"
	"runtime"

	"contactbook/cmd/internal/envx"
)

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy controls password validation.
type Policy struct {
	MinLength int
	MaxLength int
	// RejectVeryWeak enables a minimal trivial-pattern check.
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Argon2idParams
	Policy Policy
}

// DefaultConfig returns the baseline used when no env overrides are present.
func DefaultConfig() Config {
	// Parallelism follows the host but stays within [1..4] so containers stay predictable.
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024,
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above.
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength: 6,
			MaxLength: 128,
		},
	}
}

// FromEnv loads config from environment variables on top of DefaultConfig.
//
// Env surface:
//   - CONTACTBOOK_PASSWORD_MIN_LEN
//   - CONTACTBOOK_PASSWORD_MAX_LEN
//   - CONTACTBOOK_PASSWORD_REJECT_VERY_WEAK
//   - CONTACTBOOK_ARGON2_MEMORY_KIB
//   - CONTACTBOOK_ARGON2_ITERATIONS
//   - CONTACTBOOK_ARGON2_PARALLELISM
//   - CONTACTBOOK_ARGON2_SALT_LEN
//   - CONTACTBOOK_ARGON2_KEY_LEN
//
// Every failure wraps ErrConfig.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	ints := []struct {
		key      string
		min, max int
		set      func(int)
	}{
		{"CONTACTBOOK_PASSWORD_MIN_LEN", 1, 1024, func(n int) { cfg.Policy.MinLength = n }},
		{"CONTACTBOOK_PASSWORD_MAX_LEN", 1, 4096, func(n int) { cfg.Policy.MaxLength = n }},
		{"CONTACTBOOK_ARGON2_MEMORY_KIB", 8 * 1024, 1024 * 1024, func(n int) { cfg.Params.MemoryKiB = uint32(n) }},
		{"CONTACTBOOK_ARGON2_ITERATIONS", 1, 20, func(n int) { cfg.Params.Iterations = uint32(n) }},
		{"CONTACTBOOK_ARGON2_PARALLELISM", 1, math.MaxUint8, func(n int) { cfg.Params.Parallelism = uint8(n) }},
		{"CONTACTBOOK_ARGON2_SALT_LEN", 8, 64, func(n int) { cfg.Params.SaltLength = uint32(n) }},
		{"CONTACTBOOK_ARGON2_KEY_LEN", 16, 64, func(n int) { cfg.Params.KeyLength = uint32(n) }},
	}
	for _, it := range ints {
		n, ok, err := envx.LookupIntRange(it.key, it.min, it.max)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		if ok {
			it.set(n)
		}
	}

	weak, ok, err := envx.LookupBool("CONTACTBOOK_PASSWORD_REJECT_VERY_WEAK")
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if ok {
		cfg.Policy.RejectVeryWeak = weak
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf(
			"%w: min_len(%d) > max_len(%d)",
			ErrConfig,
			cfg.Policy.MinLength,
			cfg.Policy.MaxLength,
		)
	}

	return cfg, nil
}
