// Package repository defines error values shared across repositories.
// These sentinels let the service and handler layers distinguish failure
// scenarios with errors.Is instead of matching on driver error strings.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering with an email that is
// already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrUsernameExists is returned when the requested username is taken.
var ErrUsernameExists = errors.New("username already exists")

// ErrDuplicateSubmission is returned when a user tries to enter the same
// contest twice.
var ErrDuplicateSubmission = errors.New("already submitted to this contest")

// ErrDuplicateVote is returned when a user votes twice for one submission.
var ErrDuplicateVote = errors.New("already voted for this submission")

// ErrVoteLimit is returned when a vote would exceed the per-contest cap of
// distinct submissions a user may vote for.
var ErrVoteLimit = errors.New("vote limit reached for this contest")

// ErrImmutable is returned when an update would modify a write-once field,
// such as the contest seed.
var ErrImmutable = errors.New("attempt to modify immutable field")

// ErrInsufficientCoins is returned when a coin transfer would overdraw the
// sender's balance.
var ErrInsufficientCoins = errors.New("insufficient coins")

// isDuplicate reports whether err is a MySQL unique-constraint violation
// (error 1062).  The repositories translate it into the entity-specific
// sentinel above.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
