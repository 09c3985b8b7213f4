package errors

import (
	"fmt"
	"strings"
)

// ErrWatcherExited is returned when a change watcher stops producing events
// without being asked to.
var ErrWatcherExited = New("watcher exited unexpectedly")

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// InvalidBasePath is returned when a relative path is resolved against a base
// that is not absolute.
type InvalidBasePath struct {
	Path string
}

func (err InvalidBasePath) Error() string {
	return fmt.Sprintf("base path %q must be absolute", err.Path)
}

// ExecutionFailure represents an external command that could not be started
// or exited unsuccessfully.
type ExecutionFailure struct {
	Command  []string
	ExitCode int

	// Output is the tail of the command's error output, if any was captured.
	Output string

	// Err is the underlying error from starting or waiting on the process.
	Err error
}

func (err ExecutionFailure) Error() string {
	cmd := strings.Join(err.Command, " ")
	msg := fmt.Sprintf("%q failed", cmd)
	if err.ExitCode != 0 {
		msg = fmt.Sprintf("%q exited with status %d", cmd, err.ExitCode)
	} else if err.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Err)
	}

	if out := strings.TrimSpace(err.Output); out != "" {
		msg += ":\n" + out
	}
	return msg
}

func (err ExecutionFailure) Unwrap() error {
	return err.Err
}
