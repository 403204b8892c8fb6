//go:build linux

package driver

import (
	"github.com/brickingsoft/solo/pkg/task"
)

type LifecycleState uint8

const (
	Submitted LifecycleState = iota
	Waiting
	Completed
	Ignored
)

func (s LifecycleState) String() string {
	switch s {
	case Submitted:
		return "submitted"
	case Waiting:
		return "waiting"
	case Completed:
		return "completed"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

// CompletionMeta
// outcome of one operation. Result is nil when Err is set.
type CompletionMeta struct {
	Result *MaybeFd
	Err    error
	Flags  uint32
}

// Lifecycle
// slab entry of one in-flight operation.
type Lifecycle struct {
	state      LifecycleState
	isFd       bool
	skipCancel bool
	waker      task.Waker
	res        uint32
	err        error
	flags      uint32
	data       any
}

func newLifecycle(flags OpFlags) Lifecycle {
	return Lifecycle{
		state:      Submitted,
		isFd:       flags&RetIsFd != 0,
		skipCancel: flags&SkipCancel != 0,
	}
}

func (l *Lifecycle) State() LifecycleState {
	return l.state
}

// complete
// records the kernel result. Returns true when the owner is gone and the slot can be freed.
func (l *Lifecycle) complete(res uint32, err error, flags uint32) (release bool) {
	switch l.state {
	case Submitted:
		l.state = Completed
		l.res, l.err, l.flags = res, err, flags
		return false
	case Waiting:
		l.state = Completed
		l.res, l.err, l.flags = res, err, flags
		w := l.waker
		l.waker = nil
		w.Wake()
		return false
	case Ignored:
		if err == nil && l.isFd {
			_ = closeFd(int(res))
		}
		data := l.data
		l.data = nil
		task.Drop(data)
		return true
	default:
		panic("driver: operation completed twice")
	}
}

func (l *Lifecycle) poll(cx *task.Context) (CompletionMeta, bool) {
	switch l.state {
	case Submitted:
		l.state = Waiting
		l.waker = cx.Waker().Clone()
		return CompletionMeta{}, false
	case Waiting:
		old := l.waker
		l.waker = cx.Waker().Clone()
		old.Drop()
		return CompletionMeta{}, false
	case Completed:
		meta := CompletionMeta{Err: l.err, Flags: l.flags}
		if l.err == nil {
			meta.Result = &MaybeFd{value: l.res, isFd: l.isFd}
		}
		return meta, true
	default:
		panic("driver: polled an operation whose owner was dropped")
	}
}

// drop
// called when the owner goes away. Returns true when the slot is finished
// and can be freed now, false when the kernel still holds data.
func (l *Lifecycle) drop(data any) (finished bool) {
	switch l.state {
	case Submitted, Waiting:
		if w := l.waker; w != nil {
			l.waker = nil
			w.Drop()
		}
		l.state = Ignored
		l.data = data
		return false
	case Completed:
		if l.err == nil && l.isFd {
			_ = closeFd(int(l.res))
		}
		task.Drop(data)
		return true
	default:
		panic("driver: operation dropped twice")
	}
}
