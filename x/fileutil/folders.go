// Package fileutil provides the filesystem used by the reconciler
// and helpers on top of it.
package fileutil

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
)

// Vfs is the default filesystem, backed by the OS
var Vfs = afero.NewOsFs()

// FolderExists ensures that folder exists on fs
func FolderExists(fs afero.Fs, dir string) error {
	if dir == "" {
		return errors.Errorf("invalid parameter: dir")
	}

	stat, err := fs.Stat(dir)
	if err != nil {
		return errors.WithStack(err)
	}

	if !stat.IsDir() {
		return errors.Errorf("not a folder: %q", dir)
	}

	return nil
}

// FileExists ensures that file exists on fs
func FileExists(fs afero.Fs, file string) error {
	if file == "" {
		return errors.Errorf("invalid parameter: file")
	}

	stat, err := fs.Stat(file)
	if err != nil {
		return errors.WithStack(err)
	}

	if stat.IsDir() {
		return errors.Errorf("not a file: %q", file)
	}

	return nil
}

// Exists returns true if the path exists on fs.
// An error is returned only if the existence can not be determined.
func Exists(fs afero.Fs, path string) (bool, error) {
	_, err := fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.WithStack(err)
}
