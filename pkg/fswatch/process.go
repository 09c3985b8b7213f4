package fswatch

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sidkik/workon/pkg/errors"
	"github.com/sidkik/workon/pkg/ignore"
	"github.com/sidkik/workon/pkg/session"
	"github.com/sidkik/workon/pkg/version"
)

const (
	// DefaultBinary is the fswatch executable looked up in PATH.
	DefaultBinary = "fswatch"

	// stopTimeout bounds how long Close waits for fswatch's output to drain
	// after the process is killed.
	stopTimeout = time.Second

	maxErrorOutput = 4096
)

// ProcessWatcher watches for changes by running fswatch.
type ProcessWatcher struct {
	binary string
	log    *logrus.Logger
}

// NewProcess creates a ProcessWatcher. An empty `binary` means DefaultBinary.
func NewProcess(binary string, log *logrus.Logger) ProcessWatcher {
	if binary == "" {
		binary = DefaultBinary
	}
	return ProcessWatcher{binary: binary, log: log}
}

// Command returns the fswatch invocation for watching `root`, starting with
// the binary.
func Command(binary, root string, exclusions ignore.WatchSet) []string {
	excludes, includes := exclusions.Expressions(root)
	cmd := []string{binary, "--recursive", "--extended"}
	for _, exclude := range excludes {
		cmd = append(cmd, "--exclude", exclude)
	}
	for _, include := range includes {
		cmd = append(cmd, "--include", include)
	}
	return append(cmd, root)
}

// Watch starts fswatch. The process runs until `ctx` is cancelled or the
// returned Changes is closed.
func (w ProcessWatcher) Watch(ctx context.Context, root string, exclusions ignore.WatchSet) (
	session.Changes, error) {

	args := Command(w.binary, root, exclusions)
	w.log.WithField("command", args).Debug("Starting fswatch")

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.WaitDelay = stopTimeout

	stderrLog := w.log.WriterLevel(logrus.WarnLevel)
	stderr := &tailBuffer{max: maxErrorOutput}
	cmd.Stderr = io.MultiWriter(stderr, stderrLog)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		stderrLog.Close()
		return nil, errors.WithContext(err, "get stdout")
	}

	if err := cmd.Start(); err != nil {
		cancel()
		stderrLog.Close()
		return nil, errors.ExecutionFailure{Command: args, Err: err}
	}

	return &processChanges{
		ctx:       ctx,
		cancel:    cancel,
		cmd:       cmd,
		args:      args,
		scanner:   bufio.NewScanner(stdout),
		stderr:    stderr,
		stderrLog: stderrLog,
	}, nil
}

// CheckVersion makes sure that fswatch is installed and returns its version.
func (w ProcessWatcher) CheckVersion(ctx context.Context) (string, error) {
	v, err := version.Detect(ctx, w.binary)
	if err != nil {
		return "", errors.WithContext(err, "get fswatch version")
	}
	return v.String(), nil
}

type processChanges struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cmd       *exec.Cmd
	args      []string
	scanner   *bufio.Scanner
	stderr    *tailBuffer
	stderrLog io.Closer

	path string
	err  error

	waitOnce sync.Once
	waitErr  error
}

func (c *processChanges) Next() bool {
	for c.scanner.Scan() {
		if path := strings.TrimSpace(c.scanner.Text()); path != "" {
			c.path = path
			return true
		}
	}
	scanErr := c.scanner.Err()

	waitErr := c.wait()
	if c.ctx.Err() != nil {
		return false
	}

	failure := errors.ExecutionFailure{Command: c.args, Output: c.stderr.String()}
	switch {
	case scanErr != nil:
		failure.Err = errors.WithContext(scanErr, "read output")
	case waitErr == nil:
		failure.Err = errors.ErrWatcherExited
	default:
		if exitErr, ok := waitErr.(*exec.ExitError); ok && exitErr.ExitCode() > 0 {
			failure.ExitCode = exitErr.ExitCode()
		} else {
			failure.Err = waitErr
		}
	}
	c.err = failure
	return false
}

func (c *processChanges) Path() string {
	return c.path
}

func (c *processChanges) Err() error {
	return c.err
}

// Close kills fswatch if it's still running, and waits for it to exit.
func (c *processChanges) Close() error {
	c.cancel()
	c.wait()
	return nil
}

func (c *processChanges) wait() error {
	c.waitOnce.Do(func() {
		c.waitErr = c.cmd.Wait()
		c.stderrLog.Close()
	})
	return c.waitErr
}

// tailBuffer keeps the last `max` bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, _ := b.buf.Write(p)
	if extra := b.buf.Len() - b.max; extra > 0 {
		b.buf.Next(extra)
	}
	return n, nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
