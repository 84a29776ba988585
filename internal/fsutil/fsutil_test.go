package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	require.Nil(t, Wrap(nil, "write", "/tmp/x"))

	cause := errors.New("disk full")
	err := Wrap(cause, "write", "/tmp/x")
	require.EqualError(t, err, "write /tmp/x: disk full")
	require.ErrorIs(t, err, cause)
	require.Equal(t, cause, errors.Cause(err))

	var ioErr *IOError
	require.ErrorAs(t, errors.Wrap(err, "flush"), &ioErr)
	require.Same(t, err, Wrap(err, "move", "/tmp/y"), "IOError must not be wrapped twice")
}

func TestEnsureDirAndMove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))

	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o644))
	require.NoError(t, Move(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "new", string(data))

	exists, err := Exists(src)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestEnsureDir_Fails(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	err := EnsureDir(filepath.Join(file, "sub"))
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, "mkdir", ioErr.Op)
}
