package fsutil

import (
	"os"

	"github.com/pkg/errors"
)

// IOError is raised on failures of file system operations: creating directories,
// reading, writing, moving or removing files.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

// Cause implements causer of github.com/pkg/errors.
func (e *IOError) Cause() error { return e.Err }

// Wrap wraps err into IOError. It returns nil if err is nil.
func Wrap(err error, op, path string) error {
	if err == nil {
		return nil
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return &IOError{Op: op, Path: path, Err: err}
}

// EnsureDir creates the directory and its parents if it does not exist.
func EnsureDir(dir string) error {
	return Wrap(os.MkdirAll(dir, 0o755), "mkdir", dir)
}

// Exists reports whether the path exists.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, Wrap(err, "stat", path)
}

// Move renames src to dst, replacing dst if it exists.
func Move(src, dst string) error {
	return Wrap(os.Rename(src, dst), "move", src)
}

func RemoveAll(path string) error {
	return Wrap(os.RemoveAll(path), "remove", path)
}
