package session

//go:generate mockery -name Executor
//go:generate mockery -name Watcher
//go:generate mockery -name Prompter

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/buger/goterm"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/sidkik/workon/pkg/errors"
	"github.com/sidkik/workon/pkg/ignore"
)

// Request describes a single one-way mirror between two trees.
type Request struct {
	From     string
	To       string
	Excludes []string
	RuleFile string
	DryRun   bool
}

// Executor mirrors one tree onto another. It returns the number of entries
// that were (or, for dry runs, would be) transferred or deleted.
type Executor interface {
	Sync(ctx context.Context, req Request) (int, error)
}

// Changes is a stream of changed paths. Next blocks until a change is
// available, and returns false once the stream ends. A stream that ends
// because its context was cancelled has a nil Err.
type Changes interface {
	Next() bool
	Path() string
	Err() error
	Close() error
}

// Watcher subscribes to changes beneath a root directory.
type Watcher interface {
	Watch(ctx context.Context, root string, exclusions ignore.WatchSet) (Changes, error)
}

// Options configures a Session.
type Options struct {
	SourceRoot string
	DestRoot   string
	Rules      ignore.RuleSet

	// Interval is the minimum time between two syncs while watching.
	Interval time.Duration

	// AutoConfirm answers every prompt without reading input.
	AutoConfirm bool

	Executor Executor
	Watcher  Watcher

	// Prompter defaults to reading from stdin. It's ignored when
	// AutoConfirm is set.
	Prompter Prompter

	// Out receives the prompts and banners. Defaults to stdout.
	Out io.Writer

	Log   *logrus.Logger
	Clock clockwork.Clock
}

// Session reconciles a source tree with a destination tree, and then keeps
// the destination up to date with the source.
type Session struct {
	sourceRoot string
	destRoot   string
	rules      ignore.RuleSet
	interval   time.Duration

	state        State
	direction    Direction
	lastSyncedAt time.Time

	executor Executor
	watcher  Watcher
	prompter Prompter
	out      io.Writer
	log      *logrus.Logger
	clock    clockwork.Clock
}

// New creates a session in the Comparing state.
func New(opts Options) *Session {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	prompter := opts.Prompter
	if opts.AutoConfirm {
		prompter = Auto(out)
	} else if prompter == nil {
		prompter = Stdin(os.Stdin, out)
	}

	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Session{
		sourceRoot: opts.SourceRoot,
		destRoot:   opts.DestRoot,
		rules:      opts.Rules,
		interval:   opts.Interval,
		state:      Comparing,
		executor:   opts.Executor,
		watcher:    opts.Watcher,
		prompter:   prompter,
		out:        out,
		log:        log,
		clock:      clock,
	}
}

// State returns the step the session is currently in.
func (s *Session) State() State {
	return s.state
}

// Run drives the session until it's terminated, the watcher stops, or `ctx`
// is cancelled. Declining a prompt and cancelling the context both return
// nil.
func (s *Session) Run(ctx context.Context) error {
	s.log.Info("Establishing the connection...")
	for {
		var err error
		switch s.state {
		case Comparing:
			err = s.compare(ctx)
		case ChoosingDirection:
			err = s.chooseDirection(ctx)
		case ConfirmingSync:
			err = s.confirmSync(ctx)
		case Watching:
			return s.watch(ctx)
		case Terminated:
			s.log.Info("Terminate the session.")
			return nil
		default:
			return errors.New("unknown session state %d", s.state)
		}

		if err != nil {
			return err
		}
	}
}

func (s *Session) compare(ctx context.Context) error {
	s.log.Info("Compare source folder and destination folder")
	changed, err := s.executor.Sync(ctx, s.request(SourceToDestination, true))
	if err != nil {
		return errors.WithContext(err, "compare trees")
	}

	next := AfterCompare(changed)
	if next == ChoosingDirection {
		s.log.Infof("Source folder %s is currently not synced with "+
			"the destination folder %s", s.sourceRoot, s.destRoot)
	}
	s.transition(next)
	return nil
}

func (s *Session) chooseDirection(ctx context.Context) error {
	question := fmt.Sprintf("You could sync the newer version of\n"+
		"  src  (%s) [s]\n"+
		"  dest (%s) [d]\n"+
		"  or terminate [t]\n%s\nChoose [s/d/T]: ",
		s.sourceRoot, s.destRoot,
		goterm.Color("!!!! BE CAREFUL -- THIS IS IRREVERSIBLE !!!!", goterm.RED))

	answer, err := s.prompter.Prompt(ctx, DirectionQuestion, question)
	if err != nil {
		s.log.WithError(err).Debug("Failed to read direction")
		answer = ""
	}

	direction, next := ChooseDirection(answer)
	s.direction = direction
	s.transition(next)
	return nil
}

func (s *Session) confirmSync(ctx context.Context) error {
	from, to := s.endpoints(s.direction)
	fmt.Fprintf(s.out, "Syncing from (%s) to (%s)...\n", from, to)
	fmt.Fprintln(s.out, "Check dry run first...")
	if _, err := s.executor.Sync(ctx, s.request(s.direction, true)); err != nil {
		return errors.WithContext(err, "preview sync")
	}

	answer, err := s.prompter.Prompt(ctx, ConfirmQuestion, "Do you want to proceed [y/N]: ")
	if err != nil {
		s.log.WithError(err).Debug("Failed to read confirmation")
		answer = ""
	}

	next := Confirm(answer)
	if next == Watching {
		if _, err := s.executor.Sync(ctx, s.request(s.direction, false)); err != nil {
			return errors.WithContext(err, "sync")
		}
	}
	s.transition(next)
	return nil
}

func (s *Session) watch(ctx context.Context) error {
	s.log.Infof("Synced source (%s) and destination (%s) directories. "+
		"Starting the session...", s.sourceRoot, s.destRoot)

	changes, err := s.watcher.Watch(ctx, s.sourceRoot, s.rules.WatchSet())
	if err != nil {
		return errors.WithContext(err, "watch source")
	}
	defer func() {
		if err := changes.Close(); err != nil {
			s.log.WithError(err).Debug("Failed to stop watcher")
		}
	}()

	s.lastSyncedAt = s.clock.Now()
	for changes.Next() {
		s.handleChange(ctx, changes.Path())
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := changes.Err(); err != nil {
		return errors.WithContext(err, "watch source")
	}
	return errors.ErrWatcherExited
}

// handleChange syncs the source onto the destination unless the last
// successful sync was less than an interval ago. Changes inside the window
// are dropped. It returns whether a sync succeeded.
func (s *Session) handleChange(ctx context.Context, path string) bool {
	s.log.Infof("Detected a change in file: %s", path)
	if s.clock.Since(s.lastSyncedAt) < s.interval {
		return false
	}

	s.log.Infof("Running sync from %s to %s", s.sourceRoot, s.destRoot)
	if _, err := s.executor.Sync(ctx, s.request(SourceToDestination, false)); err != nil {
		if ctx.Err() == nil {
			s.log.WithError(err).Error("Sync failed")
		}
		return false
	}
	s.lastSyncedAt = s.clock.Now()
	return true
}

func (s *Session) request(direction Direction, dryRun bool) Request {
	from, to := s.endpoints(direction)
	return Request{
		From:     from,
		To:       to,
		Excludes: s.rules.TransferExcludes(),
		RuleFile: s.rules.RuleFile,
		DryRun:   dryRun,
	}
}

func (s *Session) endpoints(direction Direction) (from, to string) {
	if direction == DestinationToSource {
		return s.destRoot, s.sourceRoot
	}
	return s.sourceRoot, s.destRoot
}

func (s *Session) transition(next State) {
	s.log.WithFields(logrus.Fields{
		"from": s.state,
		"to":   next,
	}).Debug("Session state changed")
	s.state = next
}

