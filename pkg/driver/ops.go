//go:build linux

package driver

import (
	"syscall"
	"time"

	"github.com/brickingsoft/solo/pkg/liburing"
)

// Nop
// completes immediately with zero.
type Nop struct{}

func (*Nop) Prepare(sqe *liburing.SubmissionQueueEntry) {
	sqe.PrepareNop()
}

func (*Nop) OpFlags() OpFlags {
	return 0
}

// Timeout
// a relative timer. It completes with ETIME once elapsed, ECANCELED when canceled.
type Timeout struct {
	spec syscall.Timespec
}

func NewTimeout(d time.Duration) *Timeout {
	if d < 0 {
		d = 0
	}
	return &Timeout{spec: syscall.NsecToTimespec(int64(d))}
}

func (t *Timeout) Prepare(sqe *liburing.SubmissionQueueEntry) {
	sqe.PrepareTimeout(&t.spec, 0, 0)
}

func (t *Timeout) OpFlags() OpFlags {
	return 0
}

func (t *Timeout) Duration() time.Duration {
	return time.Duration(t.spec.Nano())
}
