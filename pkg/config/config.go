package config

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"

	"github.com/sidkik/workon/pkg/errors"
)

// invalidYAMLTemplate is shown when a session file can't be decoded. The yaml
// library drops the line information, so all we can do is pass the message on.
const invalidYAMLTemplate = "The session file %q could not be parsed.\n" +
	"Check that every field has the right type, and that there are no " +
	"fields besides version, project, source, destination, exclude, filter, " +
	"logFile, interval, yes and watcher.\n\n" +
	"The parser reported:\n" +
	"%s"

type versionMismatchError struct {
	path, want, got string
}

func (err versionMismatchError) Error() string {
	return err.FriendlyMessage()
}

func (err versionMismatchError) FriendlyMessage() string {
	return fmt.Sprintf("The session file %q was written for a different "+
		"version of workon.\n"+
		"This version reads %q files, but the file declares %q.",
		err.path, err.want, err.got)
}

// decodeSession reads the YAML file at `path` into `dst`. Whatever `dst`
// already holds acts as the default for fields the file leaves out.
func decodeSession(path string, dst *Session) error {
	raw, err := afero.ReadFile(fs, path)
	switch {
	case os.IsNotExist(err):
		return errors.FileNotFound{Path: path}
	case err != nil:
		return errors.WithContext(err, "read file")
	}

	if err := yaml.Unmarshal(raw, dst); err != nil {
		return errors.NewFriendlyError(invalidYAMLTemplate, path, err)
	}

	// A version mismatch explains unknown fields better than the strict
	// decoder would, so it's reported first.
	if dst.Version != SupportedVersion {
		return versionMismatchError{path: path, want: SupportedVersion, got: dst.Version}
	}

	if err := yaml.UnmarshalStrict(raw, dst, yaml.DisallowUnknownFields); err != nil {
		return errors.NewFriendlyError(invalidYAMLTemplate, path, err)
	}
	return nil
}
