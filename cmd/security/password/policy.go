package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"qwerty":      {},
	"qwerty123":   {},
	"letmein":     {},
	"iloveyou":    {},
	"secret":      {},
	"admin":       {},
	"welcome":     {},
}

// Validate checks the password against the policy. Length is counted in runes.
func (c Config) Validate(password string) error {
	n := utf8.RuneCountInString(password)
	switch {
	case n < c.Policy.MinLength:
		return ErrPasswordTooShort
	case n > c.Policy.MaxLength:
		return ErrPasswordTooLong
	}
	if c.Policy.RejectVeryWeak && looksVeryWeak(password) {
		return ErrWeakPassword
	}
	return nil
}

// looksVeryWeak catches the handful of patterns nobody should be allowed to use.
// It is not a strength estimator.
func looksVeryWeak(pw string) bool {
	s := strings.ToLower(strings.TrimSpace(pw))
	if s == "" {
		return true
	}
	if _, ok := commonPasswords[s]; ok {
		return true
	}

	runes := []rune(s)
	same, ascending, digits := true, true, true
	for i, r := range runes {
		if !unicode.IsDigit(r) {
			digits = false
		}
		if i == 0 {
			continue
		}
		if r != runes[0] {
			same = false
		}
		if r != runes[i-1]+1 {
			ascending = false
		}
	}

	return same || ascending || (digits && len(runes) < 10)
}
