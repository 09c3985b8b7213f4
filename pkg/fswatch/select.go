package fswatch

import (
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/sidkik/workon/pkg/errors"
	"github.com/sidkik/workon/pkg/session"
)

// The kinds of watchers that can be selected.
const (
	KindAuto    = "auto"
	KindFswatch = "fswatch"
	KindNative  = "native"
)

// lookPath is overridden in tests.
var lookPath = exec.LookPath

// Select returns the watcher for `kind`. KindAuto uses fswatch when it's
// installed, and native notifications otherwise.
func Select(kind string, log *logrus.Logger) (session.Watcher, error) {
	switch kind {
	case KindFswatch:
		return NewProcess(DefaultBinary, log), nil
	case KindNative:
		return NewNative(log), nil
	case KindAuto, "":
		if _, err := lookPath(DefaultBinary); err != nil {
			log.WithError(err).Warn("fswatch isn't installed. " +
				"Falling back to native filesystem notifications.")
			return NewNative(log), nil
		}
		return NewProcess(DefaultBinary, log), nil
	default:
		return nil, errors.NewFriendlyError("Unknown watcher %q. "+
			"Valid watchers are %q, %q and %q.", kind, KindAuto, KindFswatch, KindNative)
	}
}
