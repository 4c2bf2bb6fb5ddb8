// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Configuration errors, fatal at startup.
	ErrConfigNotFound = errors.New("statement config not found")
	ErrConfigInvalid  = errors.New("invalid statement config")

	// Per-file parse errors; the offending file is skipped and the run continues.
	ErrHeaderNotFound = errors.New("statement header not found")
	ErrDateParse      = errors.New("unparseable date")
	ErrRowShape       = errors.New("malformed statement row")

	// Collaborator errors. Fetch failures skip the file; append failures
	// abort the run.
	ErrExternalIO = errors.New("external data source failed")

	// Rule and category file conditions. Never fatal; the first definition
	// wins.
	ErrDuplicateRule     = errors.New("duplicate rule definition")
	ErrDuplicateCategory = errors.New("duplicate category definition")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable classifies an error for the retry loop. Parse and config
// errors are deterministic and never retryable; a RetryableError carries its
// own verdict; anything else that comes out of a collaborator call is
// assumed transient.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrHeaderNotFound) ||
		errors.Is(err, ErrDateParse) ||
		errors.Is(err, ErrRowShape) ||
		errors.Is(err, ErrConfigNotFound) ||
		errors.Is(err, ErrConfigInvalid) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return true
}
