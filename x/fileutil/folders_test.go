package fileutil_test

import (
	"fmt"
	"os"
	"path"
	"testing"

	"github.com/effective-security/x/guid"
	"github.com/effective-security/xcsr/x/fileutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FolderExists(t *testing.T) {
	tmpDir := path.Join(os.TempDir(), "fileutil-test", guid.MustCreate())

	err := fileutil.Vfs.MkdirAll(tmpDir, os.ModePerm)
	require.NoError(t, err)

	defer fileutil.Vfs.RemoveAll(tmpDir)

	assert.Error(t, fileutil.FolderExists(fileutil.Vfs, ""))
	assert.NoError(t, fileutil.FolderExists(fileutil.Vfs, tmpDir))

	err = fileutil.FolderExists(fileutil.Vfs, tmpDir + "/a")
	require.Error(t, err)
	assert.Equal(t, fmt.Sprintf("stat %s: no such file or directory", tmpDir+"/a"), err.Error())

	err = fileutil.FolderExists(fileutil.Vfs, "./folders.go")
	require.Error(t, err)
	assert.Equal(t, "not a folder: \"./folders.go\"", err.Error())
}

func Test_FileExists(t *testing.T) {
	tmpDir := path.Join(os.TempDir(), "fileutil-test", guid.MustCreate())

	err := fileutil.Vfs.MkdirAll(tmpDir, os.ModePerm)
	require.NoError(t, err)
	defer fileutil.Vfs.RemoveAll(tmpDir)

	file := path.Join(tmpDir, "file.txt")
	err = afero.WriteFile(fileutil.Vfs, file, []byte("FileExists"), 0644)
	require.NoError(t, err)

	assert.Error(t, fileutil.FileExists(fileutil.Vfs, ""))
	assert.NoError(t, fileutil.FileExists(fileutil.Vfs, file))

	err = fileutil.FileExists(fileutil.Vfs, tmpDir)
	require.Error(t, err)
	assert.Equal(t, fmt.Sprintf("not a file: %q", tmpDir), err.Error())

	err = fileutil.FileExists(fileutil.Vfs, tmpDir + "/a")
	require.Error(t, err)
	assert.Equal(t, fmt.Sprintf("stat %s: no such file or directory", tmpDir+"/a"), err.Error())
}

func Test_Exists(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a/b.txt", []byte("b"), 0600))

	ok, err := fileutil.Exists(fs, "/a/b.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fileutil.Exists(fs, "/a/c.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func Test_ExistsMemFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a/b.txt", []byte("b"), 0600))

	assert.NoError(t, fileutil.FolderExists(fs, "/a"))
	assert.NoError(t, fileutil.FileExists(fs, "/a/b.txt"))
	assert.EqualError(t, fileutil.FileExists(fs, "/a"), `not a file: "/a"`)
	assert.EqualError(t, fileutil.FolderExists(fs, "/a/b.txt"), `not a folder: "/a/b.txt"`)
}
