//go:build linux

package driver

import (
	"github.com/brickingsoft/solo/pkg/liburing"
	"github.com/brickingsoft/solo/pkg/task"
)

type OpFlags uint8

const (
	// RetIsFd
	// a successful result is a descriptor owned by whoever observes it.
	RetIsFd OpFlags = 1 << iota
	// SkipCancel
	// the operation must not be canceled once submitted, such as close.
	SkipCancel
)

// OpAble
// per-operation data able to fill a submission entry.
// Pointers handed to the kernel must point into the value itself, which stays
// alive until the operation completes.
type OpAble interface {
	Prepare(sqe *liburing.SubmissionQueueEntry)
	OpFlags() OpFlags
}

// Completion
// the operation data handed back with its outcome.
type Completion[T any] struct {
	Data T
	Meta CompletionMeta
}

// Op
// a submitted operation, polled as a future.
type Op[T OpAble] struct {
	driver *Driver
	index  int
	data   T
}

func (op *Op[T]) Index() int {
	return op.index
}

func (op *Op[T]) Poll(cx *task.Context) task.Poll[Completion[T]] {
	if op.index < 0 {
		panic("driver: operation polled after completion")
	}
	meta, ok := op.driver.PollOp(op.index, cx)
	if !ok {
		return task.Pending[Completion[T]]()
	}
	op.index = -1
	return task.Ready(Completion[T]{Data: op.data, Meta: meta})
}

// Drop
// releases the operation. An in-flight operation is canceled unless SkipCancel is set,
// and its data is kept until the kernel completes it.
func (op *Op[T]) Drop() {
	if op.index < 0 {
		return
	}
	index := op.index
	op.index = -1
	op.driver.DropOp(index, op.data, op.data.OpFlags()&SkipCancel != 0)
}

func (op *Op[T]) Canceller() Canceller {
	return Canceller{
		fn: func() {
			if op.index >= 0 {
				op.driver.CancelOp(op.index)
			}
		},
	}
}

// Canceller
// requests cancellation of an operation without dropping it.
// The op still completes, usually with ECANCELED.
type Canceller struct {
	fn func()
}

func (c Canceller) Cancel() {
	if c.fn != nil {
		c.fn()
	}
}
