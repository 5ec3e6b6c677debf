package fileutil

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
)

// WriteFileAtomic writes data to a temporary file in the folder of filename,
// syncs it and renames it over filename.
// Readers observe either the previous content or the complete new content.
// On failure the temporary file is removed and filename is left untouched.
func WriteFileAtomic(fs afero.Fs, filename string, data []byte, perm os.FileMode) (err error) {
	dir, base := filepath.Split(filename)
	if base == "" {
		return errors.Errorf("invalid file name: %q", filename)
	}
	if dir == "" {
		dir = "."
	}
	if err = FolderExists(fs, dir); err != nil {
		return err
	}

	tmp, err := afero.TempFile(fs, dir, "."+base+".tmp")
	if err != nil {
		return errors.WithMessagef(err, "create temp file")
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = fs.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errors.WithMessagef(err, "write temp file")
	}
	if err = tmp.Sync(); err != nil {
		return errors.WithMessagef(err, "sync temp file")
	}
	if err = tmp.Close(); err != nil {
		return errors.WithMessagef(err, "close temp file")
	}
	if err = fs.Chmod(tmpName, perm); err != nil {
		return errors.WithMessagef(err, "chmod temp file")
	}
	if err = fs.Rename(tmpName, filename); err != nil {
		return errors.WithMessagef(err, "rename %q", tmpName)
	}
	return nil
}
