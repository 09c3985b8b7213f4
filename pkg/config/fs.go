package config

import "github.com/spf13/afero"

// fs is the filesystem that config files are read from. Tests replace it
// with afero.NewMemMapFs().
var fs = afero.NewOsFs()

// Fs returns the filesystem used for config and rule files, so that the rest
// of the command reads from the same place.
func Fs() afero.Fs {
	return fs
}
