//go:build linux

package solo

import (
	"time"

	"github.com/brickingsoft/solo/pkg/driver"
	"github.com/brickingsoft/solo/pkg/task"
	"golang.org/x/sys/unix"
)

// Spawn
// queues fut as a new task on the runtime of h. Call it on the loop thread,
// or before BlockOn starts.
func Spawn[T any](h *Handle, fut task.Future[T]) *task.JoinHandle[T] {
	rt := h.rt
	if rt.closed {
		panic(ErrRuntimeClosed)
	}
	t, join := task.New[T](fut, rt.local, rt.id)
	rt.local.Schedule(t)
	return join
}

// Sleep
// a future completing with nil once d elapsed, backed by a ring timeout.
// The timer starts on first poll.
func Sleep(h *Handle, d time.Duration) task.Future[error] {
	return &sleepFuture{driver: h.rt.driver, timeout: driver.NewTimeout(d)}
}

type sleepFuture struct {
	driver  *driver.Driver
	timeout *driver.Timeout
	op      *driver.Op[*driver.Timeout]
	done    bool
}

func (f *sleepFuture) Poll(cx *task.Context) task.Poll[error] {
	if f.done {
		panic("solo: sleep polled after completion")
	}
	if f.op == nil {
		op, err := driver.SubmitWith(f.driver, f.timeout)
		if err != nil {
			f.done = true
			return task.Ready(err)
		}
		f.op = op
	}
	c, ok := f.op.Poll(cx).Value()
	if !ok {
		return task.Pending[error]()
	}
	f.done = true
	if c.Meta.Err == unix.ETIME {
		return task.Ready[error](nil)
	}
	return task.Ready(c.Meta.Err)
}

func (f *sleepFuture) Drop() {
	if f.op != nil {
		f.op.Drop()
	}
}

// Yield
// a future that is pending once, waking itself, so other queued tasks run first.
func Yield() task.Future[struct{}] {
	yielded := false
	return task.FutureFunc[struct{}](func(cx *task.Context) task.Poll[struct{}] {
		if yielded {
			return task.Ready(struct{}{})
		}
		yielded = true
		cx.Waker().WakeByRef()
		return task.Pending[struct{}]()
	})
}
