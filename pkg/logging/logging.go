// Package logging builds the logger shared by the workon commands.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/workon/pkg/errors"
)

// VerboseEnv is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const VerboseEnv = "WORKON_LOG_VERBOSE"

// fs is overridden in tests.
var fs = afero.NewOsFs()

// stderr is where log events go in addition to the log file.
var stderr io.Writer = os.Stderr

// Options configures New.
type Options struct {
	// File additionally receives every log event. Its parent directories
	// are created if necessary.
	File string

	Verbose bool
}

// New returns a logger that writes to stderr, and to the log file if one is
// set. The returned function closes the log file.
func New(opts Options) (*logrus.Logger, func() error, error) {
	log := logrus.New()
	log.SetOutput(stderr)
	formatter := &logrus.TextFormatter{
		// Show the full timestamp rather than the time elapsed since workon
		// started so that log files can be read on their own.
		FullTimestamp: true,
	}
	log.SetFormatter(formatter)
	if opts.Verbose || os.Getenv(VerboseEnv) == "true" {
		log.SetLevel(logrus.DebugLevel)
	}

	closeLog := func() error { return nil }
	if opts.File == "" {
		return log, closeLog, nil
	}

	if err := fs.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, nil, errors.WithContext(err, "create log directory")
	}

	logFile, err := fs.OpenFile(opts.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, errors.WithContext(err, "open log file")
	}

	// Colors would end up as escape codes in the file.
	formatter.DisableColors = true
	log.SetOutput(io.MultiWriter(logFile, stderr))
	return log, logFile.Close, nil
}
