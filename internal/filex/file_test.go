package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	defer chdir(t, tmp)()

	got, err := EnsureDir("data")
	require.NoError(t, err)

	want := filepath.Join(tmp, "data")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureDir_AbsoluteAndNested(t *testing.T) {
	want := filepath.Join(t.TempDir(), "a", "b")

	got, err := EnsureDir(want)
	require.NoError(t, err)
	require.Equal(t, want, got)

	again, err := EnsureDir(want)
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	require.NoError(t, os.WriteFile("data", []byte("x"), 0o660))

	_, err := EnsureDir("data")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestEnsureFileDir(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "data", "client.db")

	got, err := EnsureFileDir(file)
	require.NoError(t, err)
	require.Equal(t, file, got)

	fi, err := os.Stat(filepath.Join(tmp, "data"))
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	_, err = os.Stat(file)
	require.True(t, os.IsNotExist(err), "only the directory is created")
}
