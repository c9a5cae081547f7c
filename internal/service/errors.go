package service

import (
	"errors"
	"strings"
)

// ErrInvalidCredentials is returned for every failed login, whether the
// email is unknown or the password wrong.  The two cases are deliberately
// indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidToken is returned for refresh secrets and access tokens that
// are unknown, malformed, expired, revoked or replayed.
var ErrInvalidToken = errors.New("invalid token")

// ErrAccountHasPassword is returned when social sign-in targets an account
// that authenticates locally.  Accepting the social identity here would
// let anyone controlling the provider account take over the local one.
var ErrAccountHasPassword = errors.New("please use password to sign in")

// ErrProviderMismatch is returned when the provider subject id does not
// match the one stored on the account.
var ErrProviderMismatch = errors.New("social provider id mismatch")

// ErrUnknownProvider is returned for social sign-in with a provider the
// server does not support.
var ErrUnknownProvider = errors.New("unknown social provider")

// ErrInvalidState is returned when a contest operation is attempted
// outside the lifecycle phase that allows it.
var ErrInvalidState = errors.New("operation not allowed in current contest phase")

// ValidationError carries every input-policy violation found in a request,
// collected rather than short-circuited so clients can show the full list.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Reasons, "; ")
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
