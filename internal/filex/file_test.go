package filex

import (
	"errors"
	"io"
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

func TestEnsureDir_RelativeResolvesAgainstCWD(t *testing.T) {
	tmp, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	defer chdir(t, tmp)()

	got, err := EnsureDir("downloads")
	require.NoError(t, err)

	want := filepath.Join(tmp, "downloads")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	first, err := EnsureDir(dir)
	require.NoError(t, err)

	second, err := EnsureDir(dir)
	require.NoError(t, err)

	require.Equal(t, first, second)
	fi, err := os.Stat(second)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	p := filepath.Join(t.TempDir(), "downloads")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o660))

	_, err := EnsureDir(p)
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestOpenRegular(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "thesis.pdf")
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.7"), 0o600))

	f, size, err := OpenRegular(p)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, int64(8), size)

	_, _, err = OpenRegular(filepath.Join(dir, "missing.pdf"))
	require.True(t, errors.Is(err, os.ErrNotExist))

	_, _, err = OpenRegular(dir)
	require.ErrorIs(t, err, ErrNotRegular)
}

func TestWriteIn_StripsPathComponents(t *testing.T) {
	dir := t.TempDir()

	got, err := WriteIn(dir, "theses/123e4567/../../../etc/thesis.pdf", func(w io.Writer) error {
		_, err := w.Write([]byte("%PDF"))
		return err
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "thesis.pdf"), got)

	b, err := os.ReadFile(got)
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(b))

	_, err = WriteIn(dir, "", func(io.Writer) error { return nil })
	require.Error(t, err)
}

func TestWriteIn_FailureKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "thesis.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("first"), 0o600))

	boom := errors.New("transfer failed")
	_, err := WriteIn(dir, "thesis.pdf", func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	b, err := os.ReadFile(existing)
	require.NoError(t, err)
	require.Equal(t, "first", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file must be cleaned up")
}
