package sync

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sidkik/workon/cmd/util"
	"github.com/sidkik/workon/pkg/config"
	"github.com/sidkik/workon/pkg/errors"
	"github.com/sidkik/workon/pkg/fswatch"
	"github.com/sidkik/workon/pkg/ignore"
	"github.com/sidkik/workon/pkg/logging"
	"github.com/sidkik/workon/pkg/rsync"
	"github.com/sidkik/workon/pkg/session"
)

// EnvPrefix is the prefix of the environment variables that override flags.
// For example, WORKON_LOG_FILE overrides --log-file.
const EnvPrefix = "WORKON"

// executor is a session.Executor whose binary can be checked up front.
type executor interface {
	session.Executor
	CheckVersion(context.Context) (string, error)
}

// Mocked for unit testing.
var (
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin

	newExecutor = func(out io.Writer, log *logrus.Logger) executor {
		return rsync.New(rsync.Options{Output: out, Log: log})
	}
	selectWatcher = fswatch.Select
)

// settingKeys maps the flags that make up a config.Session to their keys in
// viper.
var settingKeys = []string{
	"project", "src", "dest", "exclude", "filter",
	"log-file", "interval", "yes", "watcher",
}

// New creates a new `sync` command.
func New() *cobra.Command {
	return newCommand(viper.New())
}

func newCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile a project between two directories and keep them in sync",
		Long: "Compare the project in the source and destination directories, " +
			"ask which side should win if they differ,\n" +
			"and then push every change in the source to the destination.\n\n" +
			"Settings are read from flags, then WORKON_* environment variables, " +
			"then the config file.",
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			cfg, err := loadConfig(v)
			if err != nil {
				util.HandleFatalError(err)
				return
			}

			if err := run(cfg, v.GetBool("verbose")); err != nil {
				util.HandleFatalError(err)
			}
		},
	}

	flags := cmd.Flags()
	flags.StringP("project", "n", "",
		"Name of the project. It's the folder name of the project in both src and dest.")
	flags.StringP("src", "s", "", "Source folder that contains the project")
	flags.StringP("dest", "d", "",
		"Destination folder that contains the project. May be remote, such as host:path.")
	flags.StringSliceP("exclude", "e", config.DefaultExcludes, "Exclude files matching the pattern")
	flags.StringP("filter", "f", "",
		"gitignore style rule file, such as .gitignore. Matching files aren't synced.")
	flags.StringP("log-file", "l", "", "Also write logs to this file")
	flags.IntP("interval", "i", config.DefaultInterval,
		"Minimum number of seconds between two syncs while watching")
	flags.BoolP("yes", "y", false,
		"Don't ask any interactive questions, and sync the source onto the destination")
	flags.String("watcher", config.DefaultWatcher,
		"How to watch for changes: auto, fswatch or native")
	flags.String("config", config.DefaultPath, "Config file to read settings from")
	flags.Bool("verbose", false, "Log debug messages")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, key := range append(settingKeys, "config", "verbose") {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(err)
		}
	}
	return cmd
}

// loadConfig merges the flags, environment and config file into a validated
// config.
func loadConfig(v *viper.Viper) (config.Session, error) {
	if path := v.GetString("config"); path != "" {
		fileCfg, err := config.ParseSession(path)
		switch {
		case err == nil:
			if err := v.MergeConfigMap(fileSettings(fileCfg)); err != nil {
				return config.Session{}, errors.WithContext(err, "merge config")
			}
		case isNotFound(err) && !v.IsSet("config"):
			// The default config file is optional.
		default:
			return config.Session{}, errors.WithContext(err, "read config")
		}
	}

	cfg := config.Session{
		Version:     config.SupportedVersion,
		Project:     v.GetString("project"),
		Source:      v.GetString("src"),
		Destination: v.GetString("dest"),
		Exclude:     v.GetStringSlice("exclude"),
		Filter:      v.GetString("filter"),
		LogFile:     v.GetString("log-file"),
		Interval:    v.GetInt("interval"),
		Yes:         v.GetBool("yes"),
		Watcher:     v.GetString("watcher"),
	}

	cfg, err := cfg.ExpandPaths()
	if err != nil {
		return config.Session{}, err
	}

	if err := cfg.Validate(); err != nil {
		if missing, ok := err.(errors.MissingFieldError); ok {
			return config.Session{}, errors.NewFriendlyError(
				"The %s is required. Set it with a flag, the environment, "+
					"or the config file.\nSee `workon sync --help` for details.",
				missing.Field)
		}
		return config.Session{}, err
	}

	for _, field := range []*string{&cfg.Source, &cfg.Destination, &cfg.Filter, &cfg.LogFile} {
		if *field == "" || config.IsRemote(*field) {
			continue
		}
		abs, err := filepath.Abs(*field)
		if err != nil {
			return config.Session{}, errors.WithContext(err, "get absolute path")
		}
		*field = abs
	}
	return cfg, nil
}

// fileSettings returns the settings in `cfg` that were set, keyed like the
// flags.
func fileSettings(cfg config.Session) map[string]interface{} {
	settings := map[string]interface{}{}
	setString := func(key, value string) {
		if value != "" {
			settings[key] = value
		}
	}
	setString("project", cfg.Project)
	setString("src", cfg.Source)
	setString("dest", cfg.Destination)
	setString("filter", cfg.Filter)
	setString("log-file", cfg.LogFile)
	setString("watcher", cfg.Watcher)

	if len(cfg.Exclude) != 0 {
		settings["exclude"] = cfg.Exclude
	}
	if cfg.Interval != 0 {
		settings["interval"] = cfg.Interval
	}
	if cfg.Yes {
		settings["yes"] = true
	}
	return settings
}

func isNotFound(err error) bool {
	_, ok := errors.RootCause(err).(errors.FileNotFound)
	return ok
}

func run(cfg config.Session, verbose bool) error {
	log, closeLog, err := logging.New(logging.Options{File: cfg.LogFile, Verbose: verbose})
	if err != nil {
		return errors.WithContext(err, "set up logging")
	}
	defer closeLog()

	sourceRoot, destRoot := cfg.SourceRoot(), cfg.DestRoot()
	rules, err := ignore.Load(config.Fs(), cfg.Exclude, cfg.Filter, sourceRoot)
	if err != nil {
		if notFound, ok := errors.RootCause(err).(errors.FileNotFound); ok {
			return errors.NewFriendlyError("The rule file %q doesn't exist.", notFound.Path)
		}
		return errors.WithContext(err, "load rules")
	}
	log.WithFields(logrus.Fields{
		"excludes": rules.Excludes,
		"rules":    len(rules.Rules),
	}).Debug("Loaded rules")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncer := newExecutor(stdout, log)
	if _, err := syncer.CheckVersion(ctx); err != nil {
		return err
	}

	watcher, err := selectWatcher(cfg.Watcher, log)
	if err != nil {
		return err
	}

	s := session.New(session.Options{
		SourceRoot:  sourceRoot,
		DestRoot:    destRoot,
		Rules:       rules,
		Interval:    cfg.IntervalDuration(),
		AutoConfirm: cfg.Yes,
		Executor:    syncer,
		Watcher:     watcher,
		Prompter:    session.Stdin(stdin, stdout),
		Out:         stdout,
		Log:         log,
		Clock:       clockwork.NewRealClock(),
	})
	return s.Run(ctx)
}
