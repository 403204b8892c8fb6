package task

import (
	"sync/atomic"
)

// Schedule
// re-enqueues a task that became runnable. Called on the thread owning the run queue.
type Schedule interface {
	Schedule(t *Task)
}

type ScheduleFunc func(t *Task)

func (fn ScheduleFunc) Schedule(t *Task) {
	fn(t)
}

type stage interface {
	poll(cx *Context) bool
	cancel()
	dropFutureOrOutput()
}

type core[T any] struct {
	future Future[T]
	output *Result[T]
}

func (c *core[T]) poll(cx *Context) bool {
	v, ok := c.future.Poll(cx).Value()
	if !ok {
		return false
	}
	c.dropFuture()
	c.output = &Result[T]{Value: v}
	return true
}

func (c *core[T]) cancel() {
	c.dropFuture()
	c.output = &Result[T]{Err: ErrCanceled}
}

func (c *core[T]) dropFuture() {
	if f := c.future; f != nil {
		c.future = nil
		Drop(f)
	}
}

func (c *core[T]) dropFutureOrOutput() {
	c.dropFuture()
	if out := c.output; out != nil {
		c.output = nil
		Drop(out.Value)
	}
}

func (c *core[T]) takeOutput() Result[T] {
	out := c.output
	if out == nil {
		panic("task: JoinHandle polled after completion")
	}
	c.output = nil
	return *out
}

// Header
// the shared part of a task cell.
type Header struct {
	state     State
	scheduler Schedule
	stage     stage
	joinWaker Waker
	owner     uint64
	released  atomic.Bool
}

// Task
// a reference counted cell owning a future. A *Task held by a run queue is the
// runnable reference; running or shutting it down consumes that reference.
type Task struct {
	header Header
}

// New
// creates a task in the initial state with two references: the returned runnable
// task and the returned join handle.
func New[T any](future Future[T], scheduler Schedule, owner uint64) (*Task, *JoinHandle[T]) {
	c := &core[T]{future: future}
	t := &Task{
		header: Header{
			scheduler: scheduler,
			stage:     c,
			owner:     owner,
		},
	}
	t.header.state.v.Store(INITIAL)
	return t, &JoinHandle[T]{task: t, core: c}
}

func (t *Task) State() *State {
	return &t.header.state
}

// Owner
// id of the runtime the task was spawned on.
func (t *Task) Owner() uint64 {
	return t.header.owner
}

// Released
// reports whether the cell has been deallocated.
func (t *Task) Released() bool {
	return t.header.released.Load()
}

// Run
// polls the future once. Consumes the runnable reference unless the task was
// woken during the poll, in which case it is scheduled again with it.
func (t *Task) Run() {
	state := &t.header.state
	state.TransitionToRunning()

	cx := NewContext(&taskWaker{task: t, borrowed: true})
	if t.header.stage.poll(cx) {
		t.complete()
		return
	}

	switch state.TransitionToIdle() {
	case IdleOkNotified:
		t.header.scheduler.Schedule(t)
	default:
		t.dropRef()
	}
}

// Shutdown
// discards a runnable task without polling it. The join side observes ErrCanceled.
func (t *Task) Shutdown() {
	t.header.state.TransitionToRunning()
	t.header.stage.cancel()
	t.complete()
}

func (t *Task) complete() {
	snapshot := t.header.state.TransitionToComplete()
	if !snapshot.IsJoinInterested() {
		t.header.stage.dropFutureOrOutput()
	} else if snapshot.HasJoinWaker() {
		t.header.joinWaker.WakeByRef()
	}
	t.dropRef()
}

func (t *Task) dropRef() {
	if t.header.state.RefDec() {
		t.dealloc()
	}
}

func (t *Task) dealloc() {
	if !t.header.released.CompareAndSwap(false, true) {
		panic("task: deallocated twice")
	}
	t.header.stage.dropFutureOrOutput()
	if w := t.header.joinWaker; w != nil {
		t.header.joinWaker = nil
		w.Drop()
	}
}

func (t *Task) wakeByVal() {
	if t.header.state.TransitionToNotified() == NotifiedSubmit {
		t.header.scheduler.Schedule(t)
		return
	}
	t.dropRef()
}

func (t *Task) wakeByRef() {
	if t.header.state.TransitionToNotified() == NotifiedSubmit {
		t.header.state.RefInc()
		t.header.scheduler.Schedule(t)
	}
}

// Waker
// a new waker holding its own reference.
func (t *Task) Waker() Waker {
	t.header.state.RefInc()
	return &taskWaker{task: t}
}

// taskWaker
// the borrowed form is handed to Poll and owns no reference.
type taskWaker struct {
	task     *Task
	borrowed bool
	spent    atomic.Bool
}

func (w *taskWaker) Wake() {
	if w.borrowed {
		w.task.wakeByRef()
		return
	}
	if w.spent.CompareAndSwap(false, true) {
		w.task.wakeByVal()
	}
}

func (w *taskWaker) WakeByRef() {
	if !w.borrowed && w.spent.Load() {
		return
	}
	w.task.wakeByRef()
}

func (w *taskWaker) Clone() Waker {
	return w.task.Waker()
}

func (w *taskWaker) Drop() {
	if w.borrowed {
		return
	}
	if w.spent.CompareAndSwap(false, true) {
		w.task.dropRef()
	}
}
