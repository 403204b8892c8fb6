//go:build linux

package fs

import (
	"bytes"
	"io"
	"os"
	"syscall"

	"github.com/brickingsoft/solo/pkg/driver"
	"github.com/brickingsoft/solo/pkg/task"
	"golang.org/x/sys/unix"
)

// OpenAt
// opens path relative to dirFd (unix.AT_FDCWD for the working directory).
// Invalid options or paths fail here, before anything is submitted.
func (o *Opener) OpenAt(d *driver.Driver, dirFd int, path string) (task.Future[task.Result[*File]], error) {
	flags, err := o.Flags()
	if err != nil {
		return nil, &os.PathError{Op: "openat", Path: path, Err: err}
	}
	if bytes.IndexByte([]byte(path), 0) >= 0 {
		return nil, &os.PathError{Op: "openat", Path: path, Err: syscall.EINVAL}
	}
	data := &openAt{
		dirFd: dirFd,
		path:  append([]byte(path), 0),
		name:  path,
		flags: flags,
		mode:  o.mode,
	}
	op, err := driver.SubmitWith(d, data)
	if err != nil {
		return nil, &os.PathError{Op: "openat", Path: path, Err: err}
	}
	return &opFuture[*openAt, *File]{op: op, complete: completeOpen}, nil
}

func completeOpen(c driver.Completion[*openAt]) (*File, error) {
	if c.Meta.Err != nil {
		return nil, &os.PathError{Op: "openat", Path: c.Data.name, Err: c.Meta.Err}
	}
	return &File{fd: c.Meta.Result, name: c.Data.name}, nil
}

// Open
// opens a file for reading.
func Open(d *driver.Driver, path string) (task.Future[task.Result[*File]], error) {
	return NewOpener().Read(true).OpenAt(d, unix.AT_FDCWD, path)
}

// Create
// creates or truncates a file for writing.
func Create(d *driver.Driver, path string) (task.Future[task.Result[*File]], error) {
	return NewOpener().Read(true).Write(true).Create(true).Truncate(true).OpenAt(d, unix.AT_FDCWD, path)
}

// File
// an open descriptor. Dropping or closing it closes the descriptor exactly once.
type File struct {
	fd   *driver.MaybeFd
	name string
}

func (f *File) Fd() int {
	return int(f.fd.Fd())
}

func (f *File) Name() string {
	return f.name
}

// Release
// hands the descriptor to the caller, who becomes responsible for closing it.
func (f *File) Release() int {
	return int(f.fd.IntoInner())
}

// Drop
// closes the descriptor with a plain syscall if the file was not closed through the ring.
func (f *File) Drop() {
	if f == nil {
		return
	}
	f.fd.Drop()
}

// Close
// closes through the ring. The descriptor is consumed even when the close fails.
func (f *File) Close(d *driver.Driver) task.Future[task.Result[struct{}]] {
	if !f.fd.IsFd() {
		return failed[struct{}](os.ErrClosed)
	}
	fd := int(f.fd.IntoInner())
	op, err := driver.SubmitWith(d, &closeOp{fd: fd})
	if err != nil {
		_ = unix.Close(fd)
		return failed[struct{}](os.NewSyscallError("close", err))
	}
	return &opFuture[*closeOp, struct{}]{op: op, complete: func(c driver.Completion[*closeOp]) (struct{}, error) {
		if c.Meta.Err != nil {
			return struct{}{}, os.NewSyscallError("close", c.Meta.Err)
		}
		return struct{}{}, nil
	}}
}

// ReadAt
// reads into buf at offset, -1 meaning the current file position.
// A read of zero bytes into a non empty buf reports io.EOF.
func (f *File) ReadAt(d *driver.Driver, buf []byte, offset int64) task.Future[task.Result[int]] {
	if !f.fd.IsFd() {
		return failed[int](os.ErrClosed)
	}
	if len(buf) == 0 {
		return task.ReadyFuture(task.Result[int]{})
	}
	return submit(d, &readOp{fd: f.Fd(), buf: buf, offset: offset}, func(c driver.Completion[*readOp]) (int, error) {
		if c.Meta.Err != nil {
			return 0, os.NewSyscallError("read", c.Meta.Err)
		}
		n := int(c.Meta.Result.IntoInner())
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	})
}

// WriteAt
// writes buf at offset, -1 meaning the current file position. Short writes are returned as is.
func (f *File) WriteAt(d *driver.Driver, buf []byte, offset int64) task.Future[task.Result[int]] {
	if !f.fd.IsFd() {
		return failed[int](os.ErrClosed)
	}
	if len(buf) == 0 {
		return task.ReadyFuture(task.Result[int]{})
	}
	return submit(d, &writeOp{fd: f.Fd(), buf: buf, offset: offset}, func(c driver.Completion[*writeOp]) (int, error) {
		if c.Meta.Err != nil {
			return 0, os.NewSyscallError("write", c.Meta.Err)
		}
		return int(c.Meta.Result.IntoInner()), nil
	})
}

// Sync
// fsync(2) through the ring.
func (f *File) Sync(d *driver.Driver) task.Future[task.Result[struct{}]] {
	if !f.fd.IsFd() {
		return failed[struct{}](os.ErrClosed)
	}
	return submit(d, &fsyncOp{fd: f.Fd()}, func(c driver.Completion[*fsyncOp]) (struct{}, error) {
		if c.Meta.Err != nil {
			return struct{}{}, os.NewSyscallError("fsync", c.Meta.Err)
		}
		return struct{}{}, nil
	})
}
