package util

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/workon/pkg/errors"
)

// Mocked for unit testing.
var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// HandleFatalError handles errors that are severe enough to terminate the
// program. Friendly errors are shown to the user as-is.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")
	if msg, ok := errors.GetFriendlyMessage(err); ok {
		fmt.Fprintln(stderr, msg)
	} else {
		fmt.Fprintf(stderr, "Error: %s\n", err)
	}
	exit(1)
}

// HandlePanic reports a panic before the program crashes. It must be
// deferred.
func HandlePanic() {
	if r := recover(); r != nil {
		fmt.Fprintf(stderr, "workon crashed: %v\n%s", r, debug.Stack())
		exit(1)
	}
}
