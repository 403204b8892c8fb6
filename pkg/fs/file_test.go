//go:build linux

package fs_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/brickingsoft/solo/pkg/driver"
	"github.com/brickingsoft/solo/pkg/fs"
	"github.com/brickingsoft/solo/pkg/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newDriver(t *testing.T) *driver.Driver {
	t.Helper()
	d, err := driver.New(driver.WithEntries(16))
	if errors.Is(err, syscall.ENOSYS) || errors.Is(err, syscall.EPERM) {
		t.Skip("io_uring unavailable:", err)
	}
	require.NoError(t, err)
	t.Cleanup(func() {
		for i := 0; i < 100 && d.Len() > 0; i++ {
			_ = d.ParkTimeout(10 * time.Millisecond)
		}
		assert.NoError(t, d.Close())
	})
	return d
}

func await[T any](t *testing.T, d *driver.Driver, fut task.Future[task.Result[T]]) (T, error) {
	t.Helper()
	cx := task.NewContext(task.NoopWaker())
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if out, ok := fut.Poll(cx).Value(); ok {
			return out.Unwrap()
		}
		require.NoError(t, d.ParkTimeout(50*time.Millisecond))
	}
	t.Fatal("future did not complete")
	var zero T
	return zero, nil
}

func TestFile_OpenRead(t *testing.T) {
	d := newDriver(t)
	path := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello, ring"), 0o644))

	open, err := fs.Open(d, path)
	require.NoError(t, err)
	f, err := await(t, d, open)
	require.NoError(t, err)
	assert.Equal(t, path, f.Name())

	buf := make([]byte, 64)
	n, err := await(t, d, f.ReadAt(d, buf, 0))
	require.NoError(t, err)
	assert.Equal(t, "hello, ring", string(buf[:n]))

	n, err = await(t, d, f.ReadAt(d, buf, 7))
	require.NoError(t, err)
	assert.Equal(t, "ring", string(buf[:n]))

	_, err = await(t, d, f.ReadAt(d, buf, 64))
	assert.ErrorIs(t, err, io.EOF)

	_, err = await(t, d, f.Close(d))
	require.NoError(t, err)
	_, err = await(t, d, f.Close(d))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestFile_OpenMissing(t *testing.T) {
	d := newDriver(t)
	open, err := fs.Open(d, filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	_, err = await(t, d, open)
	assert.ErrorIs(t, err, os.ErrNotExist)
	var pathErr *os.PathError
	require.True(t, errors.As(err, &pathErr))
	assert.Equal(t, "openat", pathErr.Op)
}

func TestFile_CreateWriteSync(t *testing.T) {
	d := newDriver(t)
	path := filepath.Join(t.TempDir(), "out.txt")

	create, err := fs.Create(d, path)
	require.NoError(t, err)
	f, err := await(t, d, create)
	require.NoError(t, err)

	n, err := await(t, d, f.WriteAt(d, []byte("solo"), 0))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	_, err = await(t, d, f.Sync(d))
	require.NoError(t, err)
	_, err = await(t, d, f.Close(d))
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "solo", string(content))

	createNew, err := fs.NewOpener().Write(true).CreateNew(true).OpenAt(d, unix.AT_FDCWD, path)
	require.NoError(t, err)
	_, err = await(t, d, createNew)
	assert.ErrorIs(t, err, os.ErrExist)
}

func TestFile_DropCloses(t *testing.T) {
	d := newDriver(t)
	path := filepath.Join(t.TempDir(), "drop.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	open, err := fs.Open(d, path)
	require.NoError(t, err)
	f, err := await(t, d, open)
	require.NoError(t, err)
	fd := f.Fd()

	_, err = unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	require.NoError(t, err)
	f.Drop()
	_, err = unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	assert.ErrorIs(t, err, syscall.EBADF)
	f.Drop()
}

func TestFile_Release(t *testing.T) {
	d := newDriver(t)
	path := filepath.Join(t.TempDir(), "release.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	open, err := fs.Open(d, path)
	require.NoError(t, err)
	f, err := await(t, d, open)
	require.NoError(t, err)

	fd := f.Release()
	f.Drop()
	_, err = unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	require.NoError(t, err)
	require.NoError(t, unix.Close(fd))
}

func TestFile_DropOpenInFlight(t *testing.T) {
	d := newDriver(t)
	path := filepath.Join(t.TempDir(), "inflight.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	open, err := fs.Open(d, path)
	require.NoError(t, err)
	task.Drop(open)
	for i := 0; i < 100 && d.Len() > 0; i++ {
		require.NoError(t, d.ParkTimeout(10*time.Millisecond))
	}
	assert.Equal(t, 0, d.Len())
}

func TestFile_DropResult(t *testing.T) {
	d := newDriver(t)
	path := filepath.Join(t.TempDir(), "result.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	open, err := fs.Open(d, path)
	require.NoError(t, err)
	f, err := await(t, d, open)
	require.NoError(t, err)
	fd := f.Fd()

	task.Drop(task.Result[*fs.File]{Value: f})
	_, err = unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	assert.ErrorIs(t, err, syscall.EBADF)

	assert.NotPanics(t, func() { task.Drop(task.Result[*fs.File]{Err: os.ErrNotExist}) })
}
