//go:build linux

package fs

import (
	"github.com/brickingsoft/solo/pkg/driver"
	"github.com/brickingsoft/solo/pkg/task"
)

// opFuture
// resolves an Op into a value through complete.
type opFuture[T driver.OpAble, R any] struct {
	op       *driver.Op[T]
	complete func(c driver.Completion[T]) (R, error)
}

func (f *opFuture[T, R]) Poll(cx *task.Context) task.Poll[task.Result[R]] {
	c, ok := f.op.Poll(cx).Value()
	if !ok {
		return task.Pending[task.Result[R]]()
	}
	v, err := f.complete(c)
	return task.Ready(task.Result[R]{Value: v, Err: err})
}

func (f *opFuture[T, R]) Drop() {
	f.op.Drop()
}

func submit[T driver.OpAble, R any](d *driver.Driver, data T, complete func(c driver.Completion[T]) (R, error)) task.Future[task.Result[R]] {
	op, err := driver.SubmitWith(d, data)
	if err != nil {
		return failed[R](err)
	}
	return &opFuture[T, R]{op: op, complete: complete}
}

func failed[R any](err error) task.Future[task.Result[R]] {
	return task.ReadyFuture(task.Result[R]{Err: err})
}
