package fswatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/workon/pkg/errors"
	"github.com/sidkik/workon/pkg/ignore"
	"github.com/sidkik/workon/pkg/session"
)

var fs = afero.NewOsFs()

// NativeWatcher watches for changes using the operating system's filesystem
// notifications. It doesn't need any external tools.
type NativeWatcher struct {
	log *logrus.Logger
}

// NewNative creates a NativeWatcher.
func NewNative(log *logrus.Logger) NativeWatcher {
	return NativeWatcher{log: log}
}

// Watch starts watching every directory beneath `root` that isn't excluded.
// Directories created later on are watched as they appear.
func (w NativeWatcher) Watch(ctx context.Context, root string, exclusions ignore.WatchSet) (
	session.Changes, error) {

	dirs, err := getDirsToWatch(root, root, exclusions)
	if err != nil {
		return nil, errors.WithContext(err, "get paths")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithContext(err, "create watcher")
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			// Close the watcher so that we release the file handlers for the
			// previously added paths.
			if err := watcher.Close(); err != nil {
				w.log.WithError(err).Warn("Failed to close file watcher")
			}

			if strings.Contains(err.Error(), "too many open files") {
				return nil, errors.NewFriendlyError(
					"There are too many directories in %q to watch for changes.\n"+
						"Install fswatch, or increase your file watching limit.", root)
			}
			return nil, errors.WithContext(err, fmt.Sprintf("watch %q", dir))
		}
	}

	return &nativeChanges{
		ctx:        ctx,
		watcher:    watcher,
		root:       root,
		exclusions: exclusions,
		log:        w.log,
	}, nil
}

type nativeChanges struct {
	ctx        context.Context
	watcher    *fsnotify.Watcher
	root       string
	exclusions ignore.WatchSet
	log        *logrus.Logger

	path string
	err  error
}

func (c *nativeChanges) Next() bool {
	for c.ctx.Err() == nil {
		select {
		case <-c.ctx.Done():
			return false
		case event, ok := <-c.watcher.Events:
			if !ok {
				return false
			}

			isDir := false
			if fi, err := fs.Stat(event.Name); err == nil {
				isDir = fi.IsDir()
			}

			if c.excluded(event.Name, isDir) {
				continue
			}

			// fsnotify doesn't watch recursively, so new directories have to
			// be added by hand.
			if isDir && event.Op&fsnotify.Create != 0 {
				c.watchNewDir(event.Name)
			}

			c.path = event.Name
			return true
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return false
			}
			c.err = errors.WithContext(err, "watch")
			return false
		}
	}
	return false
}

func (c *nativeChanges) watchNewDir(dir string) {
	dirs, err := getDirsToWatch(c.root, dir, c.exclusions)
	if err != nil {
		c.log.WithError(err).WithField("path", dir).Debug("Failed to list new directory")
		return
	}

	for _, dir := range dirs {
		if err := c.watcher.Add(dir); err != nil {
			c.log.WithError(err).WithField("path", dir).Warn("Failed to watch new directory")
		}
	}
}

func (c *nativeChanges) excluded(path string, isDir bool) bool {
	relativePath, err := filepath.Rel(c.root, path)
	if err != nil || strings.HasPrefix(relativePath, "..") {
		return true
	}
	return c.exclusions.Excluded(relativePath, isDir)
}

func (c *nativeChanges) Path() string {
	return c.path
}

func (c *nativeChanges) Err() error {
	return c.err
}

func (c *nativeChanges) Close() error {
	return c.watcher.Close()
}

// getDirsToWatch returns `dir` and every directory beneath it that isn't
// excluded. Excluded directories aren't descended into. Exclusions are
// evaluated relative to `root`, which must be `dir` or one of its parents.
func getDirsToWatch(root, dir string, exclusions ignore.WatchSet) (paths []string, err error) {
	fi, err := fs.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: dir}
		}
		return nil, errors.WithContext(err, "stat")
	}

	if !fi.IsDir() {
		return nil, errors.NewFriendlyError("%q must be a directory.", dir)
	}

	err = afero.Walk(fs, dir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk error")
		}

		if !fi.IsDir() {
			return nil
		}

		if path != root {
			relativePath, err := filepath.Rel(root, path)
			if err != nil {
				return errors.WithContext(err, "normalize path")
			}

			// This shouldn't happen because `dir` is always within `root`.
			if strings.HasPrefix(relativePath, "..") {
				return errors.New("%q is not within %q", path, root)
			}

			if exclusions.Excluded(relativePath, true) {
				return filepath.SkipDir
			}
		}

		paths = append(paths, path)
		return nil
	})
	return paths, err
}
