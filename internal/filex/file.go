// Package filex has the small filesystem helpers the client needs around
// uploads and downloads.
package filex

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrNotRegular is returned when an upload source is a directory or device.
var ErrNotRegular = errors.New("not a regular file")

// EnsureDir creates dir (relative paths resolve against the working
// directory) and returns its absolute form.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}

// OpenRegular opens path for reading and returns its size. It fails with an
// error matching os.ErrNotExist when the file is missing.
func OpenRegular(path string) (*os.File, int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, 0, err
	}
	if !fi.Mode().IsRegular() {
		return nil, 0, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	return f, fi.Size(), nil
}

// WriteIn streams into a temporary file in dir and renames it to name once
// write succeeds. On failure the temporary file is removed and any existing
// file called name is left as it was. Path components in name are dropped.
func WriteIn(dir, name string, write func(w io.Writer) error) (string, error) {
	base := filepath.Base(filepath.Clean("/" + filepath.ToSlash(name)))
	if base == "/" || base == "." || base == "" {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	target := filepath.Join(dir, base)

	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("create temp in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	err = write(tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmpName, 0o640)
	}
	if err == nil {
		err = os.Rename(tmpName, target)
	}
	if err != nil {
		if rerr := os.Remove(tmpName); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			return "", errors.Join(err, rerr)
		}
		return "", err
	}
	return target, nil
}
