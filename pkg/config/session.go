package config

import (
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/sidkik/workon/pkg/errors"
)

const (
	// DefaultPath is where `workon sync` looks for a config file when none is
	// given explicitly. It's fine for it not to exist.
	DefaultPath = "workon.yaml"

	// InitialVersion is the first version of the workon config. Config files
	// that do not specify a version default to this version.
	InitialVersion = "v1alpha1"

	// SupportedVersion is the config version understood by this binary.
	SupportedVersion = "v1alpha1"

	// DefaultInterval is the default number of seconds between two syncs
	// while watching.
	DefaultInterval = 5

	// DefaultWatcher picks the fswatch binary if it's installed, and falls
	// back to native filesystem notifications otherwise.
	DefaultWatcher = "auto"
)

// DefaultExcludes are excluded from every transfer unless the user provides
// their own list.
var DefaultExcludes = []string{"__pycache__", ".git/", ".git/*"}

// Watchers lists the valid values of Session.Watcher.
var Watchers = []string{"auto", "fswatch", "native"}

// homedirExpand is overridden in tests.
var homedirExpand = homedir.Expand

// Session contains everything needed to start a reconciliation session.
type Session struct {
	Version string `json:"version,omitempty"`

	// Project is the directory name of the project beneath both Source and
	// Destination.
	Project     string   `json:"project,omitempty"`
	Source      string   `json:"source,omitempty"`
	Destination string   `json:"destination,omitempty"`
	Exclude     []string `json:"exclude,omitempty"`

	// Filter is a gitignore-style rule file.
	Filter  string `json:"filter,omitempty"`
	LogFile string `json:"logFile,omitempty"`

	// Interval is the number of seconds between two syncs while watching.
	Interval int    `json:"interval,omitempty"`
	Yes      bool   `json:"yes,omitempty"`
	Watcher  string `json:"watcher,omitempty"`
}

// Defaults returns the settings used for anything that isn't configured.
func Defaults() Session {
	return Session{
		Version:  SupportedVersion,
		Exclude:  append([]string(nil), DefaultExcludes...),
		Interval: DefaultInterval,
		Watcher:  DefaultWatcher,
	}
}

// ParseSession parses the config file at `path`. Relative paths inside the
// file are evaluated relative to the file's directory.
func ParseSession(path string) (Session, error) {
	path, err := homedirExpand(path)
	if err != nil {
		return Session{}, errors.WithContext(err, "expand config path")
	}

	config := Session{Version: InitialVersion}
	if err := decodeSession(path, &config); err != nil {
		return Session{}, errors.WithContext(err, "parse")
	}

	dir := filepath.Dir(path)
	for _, field := range []*string{&config.Source, &config.Destination, &config.Filter, &config.LogFile} {
		if *field == "" {
			continue
		}

		*field, err = homedirExpand(*field)
		if err != nil {
			return Session{}, errors.WithContext(err, "expand path")
		}

		if !filepath.IsAbs(*field) && !IsRemote(*field) {
			*field = filepath.Join(dir, *field)
		}
	}
	return config, nil
}

// IsRemote returns whether `path` names a directory on another host, using
// rsync's `[user@]host:path` syntax.
func IsRemote(path string) bool {
	colon := strings.IndexByte(path, ':')
	if colon <= 0 {
		return false
	}

	// A separator before the colon means the colon is part of a local path.
	return !strings.ContainsAny(path[:colon], `/\`) && filepath.VolumeName(path) == ""
}

// ExpandPaths replaces a leading `~` in every path setting with the user's
// home directory.
func (c Session) ExpandPaths() (Session, error) {
	for _, field := range []*string{&c.Source, &c.Destination, &c.Filter, &c.LogFile} {
		expanded, err := homedirExpand(*field)
		if err != nil {
			return Session{}, errors.WithContext(err, "expand path")
		}
		*field = expanded
	}
	return c, nil
}

// Validate checks that the required settings are present and that the rest
// are in range.
func (c Session) Validate() error {
	required := []struct {
		name, value string
	}{
		{"project", c.Project},
		{"source", c.Source},
		{"destination", c.Destination},
	}
	for _, field := range required {
		if field.value == "" {
			return errors.MissingFieldError{Field: field.name}
		}
	}

	if IsRemote(c.Source) {
		return errors.NewFriendlyError("The source %q is on another host. "+
			"Only the destination can be remote, because changes are watched "+
			"on the source.", c.Source)
	}

	if c.Interval <= 0 {
		return errors.NewFriendlyError(
			"The sync interval must be a positive number of seconds, got %d.",
			c.Interval)
	}

	for _, watcher := range Watchers {
		if c.Watcher == watcher {
			return nil
		}
	}
	return errors.NewFriendlyError(
		"Unknown watcher %q. Valid watchers are %q.", c.Watcher, Watchers)
}

// SourceRoot is the project directory inside the source tree.
func (c Session) SourceRoot() string {
	return projectDir(c.Source, c.Project)
}

// DestRoot is the project directory inside the destination tree.
func (c Session) DestRoot() string {
	return projectDir(c.Destination, c.Project)
}

// projectDir joins `project` onto `dir`. For remote directories only the
// path after the host is joined, so that `host:` stays relative to the
// remote home directory rather than becoming `host:/project`.
func projectDir(dir, project string) string {
	if !IsRemote(dir) {
		return filepath.Join(dir, project)
	}

	colon := strings.IndexByte(dir, ':')
	host, remotePath := dir[:colon+1], dir[colon+1:]
	if remotePath == "" {
		return host + project
	}
	return host + strings.TrimSuffix(remotePath, "/") + "/" + project
}

// IntervalDuration returns Interval as a time.Duration.
func (c Session) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}
