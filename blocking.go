//go:build linux

package solo

import (
	"context"
	"sync/atomic"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/rxp"
	"github.com/brickingsoft/solo/pkg/scheduler"
	"github.com/brickingsoft/solo/pkg/task"
)

// ThreadPool
// executes blocking work off the loop thread.
//
// ScheduleTask must eventually call exactly one of Run or Drop on the task.
type ThreadPool interface {
	ScheduleTask(t *BlockingTask)
}

// BlockingStrategy
// what SpawnBlocking does when the runtime has no ThreadPool.
type BlockingStrategy int

const (
	// BlockingPanic
	// SpawnBlocking panics.
	BlockingPanic BlockingStrategy = iota
	// BlockingExecuteLocal
	// SpawnBlocking runs the function inline, blocking the loop.
	BlockingExecuteLocal
)

func (s BlockingStrategy) String() string {
	switch s {
	case BlockingPanic:
		return "panic"
	case BlockingExecuteLocal:
		return "local"
	default:
		return "unknown"
	}
}

// BlockingTask
// a unit of blocking work handed to a ThreadPool.
type BlockingTask struct {
	task *task.Task
	used atomic.Bool
}

// Run
// executes the work. Only the first of Run and Drop has an effect.
func (t *BlockingTask) Run() {
	if t.used.CompareAndSwap(false, true) {
		t.task.Run()
	}
}

// Handle
// runs the work when the task is executed by rxp executors.
func (t *BlockingTask) Handle(context.Context) {
	t.Run()
}

// Drop
// discards the work, its join reports ErrCanceled.
func (t *BlockingTask) Drop() {
	if t.used.CompareAndSwap(false, true) {
		t.task.Shutdown()
	}
}

type unscheduled struct{}

func (unscheduled) Schedule(*task.Task) {
	panic("solo: blocking task rescheduled")
}

type blockingFuture[T any] struct {
	fn func() T
}

func (f *blockingFuture[T]) Poll(*task.Context) task.Poll[T] {
	fn := f.fn
	if fn == nil {
		panic("solo: blocking task ran twice")
	}
	f.fn = nil
	return task.Ready(fn())
}

// blockingJoin
// polls the join handle with a waker routed through the remote inbox,
// the pool side completes on another goroutine.
type blockingJoin[T any] struct {
	join   *task.JoinHandle[T]
	remote *scheduler.Remote
}

func (j *blockingJoin[T]) Poll(cx *task.Context) task.Poll[task.Result[T]] {
	if j.join.IsFinished() {
		return j.join.Poll(cx)
	}
	return j.join.Poll(task.NewContext(j.remote.Wrap(cx.Waker())).WithScope(cx.Scope()))
}

func (j *blockingJoin[T]) Drop() {
	j.join.Detach()
}

// SpawnBlocking
// runs fn on the runtime's thread pool and returns a future of its result.
// Without a pool the BlockingStrategy decides.
func SpawnBlocking[T any](h *Handle, fn func() T) task.Future[task.Result[T]] {
	rt := h.rt
	if rt.pool == nil && rt.strategy == BlockingPanic {
		panic("solo: SpawnBlocking without a thread pool")
	}
	t, join := task.New[T](&blockingFuture[T]{fn: fn}, unscheduled{}, rt.id)
	bt := &BlockingTask{task: t}
	if rt.pool != nil {
		rt.pool.ScheduleTask(bt)
	} else {
		bt.Run()
	}
	return &blockingJoin[T]{join: join, remote: rt.remote}
}

// DefaultThreadPool
// a ThreadPool on rxp executors.
type DefaultThreadPool struct {
	executors rxp.Executors
	owned     bool
}

// NewDefaultThreadPool
// a pool with its own executors, at most maxGoroutines at once.
func NewDefaultThreadPool(maxGoroutines int, options ...rxp.Option) (*DefaultThreadPool, error) {
	opts := make([]rxp.Option, 0, len(options)+1)
	if maxGoroutines > 0 {
		opts = append(opts, rxp.WithMaxGoroutines(maxGoroutines))
	}
	opts = append(opts, options...)
	exec, err := rxp.New(opts...)
	if err != nil {
		return nil, errors.New("new thread pool failed", errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithWrap(err))
	}
	return &DefaultThreadPool{executors: exec, owned: true}, nil
}

// SharedThreadPool
// a pool on the process wide Executors. Closing it is a no-op.
func SharedThreadPool() (*DefaultThreadPool, error) {
	exec, err := Executors()
	if err != nil {
		return nil, err
	}
	return &DefaultThreadPool{executors: exec}, nil
}

func (p *DefaultThreadPool) ScheduleTask(t *BlockingTask) {
	if err := p.executors.Execute(context.Background(), t); err != nil {
		t.Drop()
	}
}

// Close
// closes owned executors, waiting for running blocking tasks up to the rxp close timeout.
func (p *DefaultThreadPool) Close() error {
	if !p.owned {
		return nil
	}
	return p.executors.Close()
}
