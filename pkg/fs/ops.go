//go:build linux

package fs

import (
	"unsafe"

	"github.com/brickingsoft/solo/pkg/driver"
	"github.com/brickingsoft/solo/pkg/liburing"
)

type openAt struct {
	dirFd int
	path  []byte
	name  string
	flags int
	mode  uint32
}

func (op *openAt) Prepare(sqe *liburing.SubmissionQueueEntry) {
	sqe.PrepareOpenat(op.dirFd, op.path, op.flags, op.mode)
}

func (op *openAt) OpFlags() driver.OpFlags {
	return driver.RetIsFd
}

type closeOp struct {
	fd int
}

func (op *closeOp) Prepare(sqe *liburing.SubmissionQueueEntry) {
	sqe.PrepareClose(op.fd)
}

func (op *closeOp) OpFlags() driver.OpFlags {
	return driver.SkipCancel
}

type readOp struct {
	fd     int
	buf    []byte
	offset int64
}

func (op *readOp) Prepare(sqe *liburing.SubmissionQueueEntry) {
	sqe.PrepareRead(op.fd, uintptr(unsafe.Pointer(unsafe.SliceData(op.buf))), uint32(len(op.buf)), uint64(op.offset))
}

func (op *readOp) OpFlags() driver.OpFlags {
	return 0
}

type writeOp struct {
	fd     int
	buf    []byte
	offset int64
}

func (op *writeOp) Prepare(sqe *liburing.SubmissionQueueEntry) {
	sqe.PrepareWrite(op.fd, uintptr(unsafe.Pointer(unsafe.SliceData(op.buf))), uint32(len(op.buf)), uint64(op.offset))
}

func (op *writeOp) OpFlags() driver.OpFlags {
	return 0
}

type fsyncOp struct {
	fd    int
	flags uint32
}

func (op *fsyncOp) Prepare(sqe *liburing.SubmissionQueueEntry) {
	sqe.PrepareFsync(op.fd, op.flags)
}

func (op *fsyncOp) OpFlags() driver.OpFlags {
	return 0
}
