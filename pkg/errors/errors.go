package errors

import (
	goErrors "errors"
	"fmt"
)

// New returns an error with the formatted message.
func New(format string, a ...interface{}) error {
	return fmt.Errorf(format, a...)
}

// withContext annotates an error with a short description of what was being
// attempted when it occurred.
type withContext struct {
	context string
	err     error
}

// WithContext wraps `err` so that its message reads "context: err". It
// returns nil if `err` is nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return withContext{context: context, err: err}
}

func (err withContext) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.err)
}

func (err withContext) Unwrap() error {
	return err.err
}

// RootCause returns the innermost error wrapped by WithContext.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(withContext)
		if !ok {
			return err
		}
		err = ctxErr.err
	}
}

// FriendlyError is an error whose message is meant to be shown to the user
// as-is.
type FriendlyError struct {
	msg string
}

// NewFriendlyError creates a FriendlyError with the formatted message.
func NewFriendlyError(format string, a ...interface{}) error {
	return FriendlyError{fmt.Sprintf(format, a...)}
}

func (err FriendlyError) Error() string {
	return err.msg
}

// FriendlyMessage returns the message to display to the user.
func (err FriendlyError) FriendlyMessage() string {
	return err.msg
}

// Friendly is implemented by errors that carry a user facing message.
type Friendly interface {
	FriendlyMessage() string
}

// GetFriendlyMessage returns the first friendly message found in the chain
// of `err`.
func GetFriendlyMessage(err error) (string, bool) {
	var friendly Friendly
	if goErrors.As(err, &friendly) {
		return friendly.FriendlyMessage(), true
	}
	return "", false
}

// Is is a shim around the standard library so that callers only need to
// import this package.
func Is(err, target error) bool {
	return goErrors.Is(err, target)
}

// As is a shim around the standard library.
func As(err error, target interface{}) bool {
	return goErrors.As(err, target)
}
