// Package rsync mirrors directory trees by running the rsync binary.
package rsync

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/buger/goterm"
	"github.com/sirupsen/logrus"

	"github.com/sidkik/workon/pkg/errors"
	"github.com/sidkik/workon/pkg/session"
	"github.com/sidkik/workon/pkg/version"
)

const (
	// DefaultBinary is the rsync executable looked up in PATH.
	DefaultBinary = "rsync"

	// MinimumVersion is the oldest rsync release that's known to handle the
	// filter rules generated from gitignore files.
	MinimumVersion = "3.0.0"

	// exitVanished is rsync's exit status when source files disappeared while
	// they were being transferred. This happens all the time while the
	// source tree is being edited.
	exitVanished = 24

	// maxErrorOutput bounds how much of rsync's stderr is kept for error
	// messages.
	maxErrorOutput = 4096
)

// Options configures an Executor.
type Options struct {
	// Binary defaults to DefaultBinary.
	Binary string

	// Output receives rsync's itemized output. Defaults to stdout.
	Output io.Writer

	Log *logrus.Logger
}

// Executor runs rsync. It implements session.Executor.
type Executor struct {
	binary string
	output io.Writer
	log    *logrus.Logger
}

// New creates an Executor.
func New(opts Options) Executor {
	e := Executor{binary: opts.Binary, output: opts.Output, log: opts.Log}
	if e.binary == "" {
		e.binary = DefaultBinary
	}
	if e.output == nil {
		e.output = os.Stdout
	}
	if e.log == nil {
		e.log = logrus.StandardLogger()
	}
	return e
}

// Command returns the rsync invocation for `req`, starting with the binary.
func Command(binary string, req session.Request) []string {
	var cmd []string
	if req.DryRun {
		cmd = []string{binary, "-aic", "--delete"}
	} else {
		cmd = []string{binary, "-avzic", "--progress", "--delete"}
	}

	for _, exclude := range req.Excludes {
		cmd = append(cmd, "--exclude", exclude)
	}
	if req.RuleFile != "" {
		cmd = append(cmd, "--filter", ":- "+req.RuleFile)
	}
	if req.DryRun {
		cmd = append(cmd, "--dry-run")
	}

	// The trailing slash makes rsync copy the contents of From into To,
	// rather than From itself.
	return append(cmd, withTrailingSlash(req.From), req.To)
}

// Sync runs rsync for `req`, echoes its output between banners, and returns
// the number of output lines. For dry runs, that's the number of entries that
// would be transferred or deleted.
func (e Executor) Sync(ctx context.Context, req session.Request) (int, error) {
	args := Command(e.binary, req)
	e.log.WithField("command", args).Debug("Running rsync")

	fmt.Fprintln(e.output, banner(req.DryRun))
	defer fmt.Fprintln(e.output, goterm.Color(rule("Done"), goterm.CYAN))

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	stderr := &tailBuffer{max: maxErrorOutput}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, errors.WithContext(err, "get stdout")
	}

	if err := cmd.Start(); err != nil {
		return 0, errors.ExecutionFailure{Command: args, Err: err}
	}

	var changed int
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintln(e.output, line)
		if strings.TrimSpace(line) != "" {
			changed++
		}
	}
	if err := scanner.Err(); err != nil {
		e.log.WithError(err).Debug("Failed to read rsync output")
	}

	if err := cmd.Wait(); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if ok && exitErr.ExitCode() == exitVanished {
			e.log.Warn("Some files vanished before rsync could transfer them. " +
				"They will be picked up by the next sync.")
			return changed, nil
		}

		failure := errors.ExecutionFailure{Command: args, Output: stderr.String()}
		if ok && exitErr.ExitCode() > 0 {
			failure.ExitCode = exitErr.ExitCode()
		} else {
			failure.Err = err
		}
		return changed, failure
	}
	return changed, nil
}

// CheckVersion makes sure that rsync is installed, and warns if it's older
// than MinimumVersion.
func (e Executor) CheckVersion(ctx context.Context) (string, error) {
	v, err := version.Detect(ctx, e.binary)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", errors.NewFriendlyError("rsync is required, but %q "+
				"isn't installed or isn't in your PATH.", e.binary)
		}
		return "", errors.WithContext(err, "get rsync version")
	}

	if !version.AtLeast(v, MinimumVersion) {
		e.log.Warnf("rsync %s is older than %s. "+
			"Rule files may not be applied correctly.", v, MinimumVersion)
	}
	return v.String(), nil
}

func banner(dryRun bool) string {
	title := "Running Rsync"
	if dryRun {
		title += " Dry"
	}
	return goterm.Color(rule(title), goterm.CYAN)
}

func rule(title string) string {
	line := strings.Repeat("=", 10)
	return line + " " + title + " " + line
}

func withTrailingSlash(path string) string {
	if strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}

// tailBuffer keeps the last `max` bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	n, _ := b.buf.Write(p)
	if extra := b.buf.Len() - b.max; extra > 0 {
		b.buf.Next(extra)
	}
	return n, nil
}

func (b *tailBuffer) String() string {
	return b.buf.String()
}
