package session

import (
	"errors"
	"fmt"
)

var (
	// ErrAccountExists is returned by Register when the email is already taken.
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailNotConfirmed is returned by Login for unconfirmed accounts, whatever the password.
	ErrEmailNotConfirmed = errors.New("email not confirmed")

	// ErrInvalidToken is returned for refresh and confirmation tokens that fail to decode,
	// and for refresh tokens that are not the current one (reuse).
	ErrInvalidToken = errors.New("invalid token")

	// ErrVerification is returned by ConfirmEmail when the token names no account.
	ErrVerification = errors.New("verification error")

	// ErrUnauthenticated is returned by ResolveCurrentUser for any unusable access token.
	ErrUnauthenticated = errors.New("could not validate credentials")

	// ErrInvalidInput is returned for requests the password policy or field checks reject.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// InfraError wraps a store or codec failure that is not the caller's fault.
// The HTTP layer maps it to 500 and logs Err.
type InfraError struct {
	Op  string
	Err error
}

func (e InfraError) Error() string {
	return fmt.Sprintf("session.%s: %v", e.Op, e.Err)
}

func (e InfraError) Unwrap() error { return e.Err }

func infra(op string, err error) error {
	return InfraError{Op: op, Err: err}
}

// IsInfra reports whether err is an InfraError.
func IsInfra(err error) bool {
	var ie InfraError
	return errors.As(err, &ie)
}

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
