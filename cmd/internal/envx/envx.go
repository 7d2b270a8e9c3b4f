// Package envx reads typed values from environment variables.
//
// The plain helpers (String, Bool, Int, ...) are lenient: a missing or unparsable
// value yields the default. The Lookup* helpers are strict and report whether the
// variable was set, so security-relevant loaders can reject bad input at startup.
package envx

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrInvalid is wrapped by every strict lookup failure.
var ErrInvalid = errors.New("invalid environment value")

func raw(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// String reads a string env var with a default.
func String(key, def string) string {
	v, ok := raw(key)
	if !ok {
		return def
	}
	return v
}

// Bool reads a bool env var with a default.
func Bool(key string, def bool) bool {
	v, ok := raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Int reads a positive int env var with a default.
func Int(key string, def int) int {
	v, ok := raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Int32 reads a non-negative int32 env var with a default.
func Int32(key string, def int32) int32 {
	v, ok := raw(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil || n < 0 {
		return def
	}
	return int32(n)
}

// Int64 reads a positive int64 env var with a default.
func Int64(key string, def int64) int64 {
	v, ok := raw(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Duration reads a positive duration env var with a default.
func Duration(key string, def time.Duration) time.Duration {
	v, ok := raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// List reads a comma-separated env var, dropping blank items.
func List(key string) []string {
	v, ok := raw(key)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LookupDuration parses key strictly. ok is false when the variable is unset or blank.
func LookupDuration(key string) (d time.Duration, ok bool, err error) {
	v, set := raw(key)
	if !set {
		return 0, false, nil
	}
	d, err = time.ParseDuration(v)
	if err != nil {
		return 0, true, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	return d, true, nil
}

// LookupIntRange parses key strictly and enforces [minVal..maxVal].
func LookupIntRange(key string, minVal, maxVal int) (n int, ok bool, err error) {
	v, set := raw(key)
	if !set {
		return 0, false, nil
	}
	i64, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, true, fmt.Errorf("%w: %s: not an integer", ErrInvalid, key)
	}
	n = int(i64)
	if n < minVal || n > maxVal {
		return 0, true, fmt.Errorf("%w: %s: out of range [%d..%d]", ErrInvalid, key, minVal, maxVal)
	}
	return n, true, nil
}

// LookupBool parses key strictly, accepting the usual yes/no spellings.
func LookupBool(key string) (b bool, ok bool, err error) {
	v, set := raw(key)
	if !set {
		return false, false, nil
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, true, nil
	case "0", "false", "no", "off":
		return false, true, nil
	default:
		return false, true, fmt.Errorf("%w: %s: invalid boolean", ErrInvalid, key)
	}
}
