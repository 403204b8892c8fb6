//go:build linux

package solo

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/solo/pkg/driver"
	"github.com/brickingsoft/solo/pkg/process"
	"github.com/brickingsoft/solo/pkg/scheduler"
	"github.com/brickingsoft/solo/pkg/task"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// threads maps an OS thread id to the runtime running on it.
var threads sync.Map

// Runtime
// a single threaded executor bound to one ring.
type Runtime struct {
	id           uint64
	driver       *driver.Driver
	local        *scheduler.Local
	remote       *scheduler.Remote
	handle       *Handle
	fairness     int
	strategy     BlockingStrategy
	pool         ThreadPool
	ownedPool    *DefaultThreadPool
	closeTimeout time.Duration
	cpu          int
	logger       zerolog.Logger
	entered      atomic.Bool
	shouldPoll   atomic.Bool
	closed       bool
}

// Handle
// what tasks use to reach their runtime.
type Handle struct {
	rt *Runtime
}

func (rt *Runtime) Handle() *Handle {
	return rt.handle
}

func (rt *Runtime) Id() uint64 {
	return rt.id
}

// Driver
// the submission interface for I/O built on the ring.
func (h *Handle) Driver() *driver.Driver {
	return h.rt.driver
}

func (h *Handle) Runtime() *Runtime {
	return h.rt
}

// Current
// the handle of the runtime polling cx. Falls back to the runtime running on
// the calling thread and returns nil outside any runtime.
func Current(cx *task.Context) *Handle {
	if cx != nil {
		if h, ok := cx.Scope().(*Handle); ok {
			return h
		}
	}
	if v, ok := threads.Load(unix.Gettid()); ok {
		return v.(*Runtime).handle
	}
	return nil
}

type mainWaker struct {
	rt *Runtime
}

func (w mainWaker) Wake() {
	w.WakeByRef()
}

func (w mainWaker) WakeByRef() {
	w.rt.shouldPoll.Store(true)
	w.rt.remote.Notify()
}

func (w mainWaker) Clone() task.Waker {
	return w
}

func (mainWaker) Drop() {}

// BlockOn
// runs fut to completion on the calling goroutine, locked to its OS thread,
// along with every task spawned onto rt. Panics when a runtime is already
// running on this thread or rt is running elsewhere.
func BlockOn[T any](rt *Runtime, fut task.Future[T]) T {
	if rt.closed {
		panic(ErrRuntimeClosed)
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tid := unix.Gettid()
	if _, loaded := threads.LoadOrStore(tid, rt); loaded {
		panic(nestedRuntimePanic)
	}
	if !rt.entered.CompareAndSwap(false, true) {
		threads.Delete(tid)
		panic(nestedRuntimePanic)
	}
	defer func() {
		rt.entered.Store(false)
		threads.Delete(tid)
	}()
	if rt.cpu >= 0 {
		if restore, err := process.PinThread(rt.cpu); err != nil {
			rt.logger.Warn().Err(err).Int("cpu", rt.cpu).Msg("pin thread failed")
		} else {
			defer func() {
				if err := restore(); err != nil {
					rt.logger.Warn().Err(err).Msg("restore thread affinity failed")
				}
			}()
		}
	}

	cx := task.NewContext(mainWaker{rt: rt}).WithScope(rt.handle)
	queue := rt.local.Queue()
	rt.shouldPoll.Store(true)
	for {
		rt.remote.Drain(wake)
		rt.drain(queue)

		// one poll per turn, a main future that keeps waking itself still
		// lets queued tasks and completions through.
		if rt.shouldPoll.Swap(false) {
			if v, ok := fut.Poll(cx).Value(); ok {
				rt.drain(queue)
				return v
			}
		}

		if queue.IsEmpty() && !rt.shouldPoll.Load() {
			if !rt.remote.Park() {
				continue
			}
			rt.logger.Trace().Int("in_flight", rt.driver.Len()).Msg("park")
			err := rt.driver.Park()
			rt.remote.Unparked()
			if err != nil {
				rt.logger.Warn().Err(err).Msg("park failed")
			}
			continue
		}
		if err := rt.driver.Submit(); err != nil {
			rt.logger.Warn().Err(err).Msg("submit failed")
		}
	}
}

func wake(w task.Waker) {
	w.Wake()
}

// drain
// runs queued tasks, bounded by fairness times the queue length so a task
// that keeps waking itself cannot starve the driver.
func (rt *Runtime) drain(queue *scheduler.TaskQueue) {
	budget := rt.fairness * queue.Len()
	for {
		t, ok := queue.Pop()
		if !ok {
			return
		}
		t.Run()
		if budget == 0 {
			return
		}
		budget--
	}
}

// Close
// cancels what is left and releases the ring. Queued tasks are shut down,
// in-flight operations canceled and awaited up to the close timeout.
// Must not be called while BlockOn runs.
func (rt *Runtime) Close() (err error) {
	if rt.entered.Load() {
		return ErrRuntimeRunning
	}
	if rt.closed {
		return nil
	}
	rt.closed = true

	shutdown := rt.shutdownQueued()
	canceled := rt.driver.CancelAll()
	deadline := time.Now().Add(rt.closeTimeout)
	for rt.driver.Len() > 0 && time.Now().Before(deadline) {
		if parkErr := rt.driver.ParkTimeout(10 * time.Millisecond); parkErr != nil {
			rt.logger.Warn().Err(parkErr).Msg("park during close failed")
			break
		}
		shutdown += rt.shutdownQueued()
	}
	rt.logger.Debug().
		Int("shutdown", shutdown).
		Int("canceled", canceled).
		Int("leaked", rt.driver.Len()).
		Msg("runtime closing")

	if n := rt.driver.Len(); n > 0 {
		rt.logger.Warn().Int("in_flight", n).Msg("operations still in flight, ring left open")
		err = errors.From(ErrLeakedOperation, errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithWrap(rt.driver.Close()))
	} else if closeErr := rt.driver.Close(); closeErr != nil {
		err = closeErr
	}
	if rt.ownedPool != nil {
		if poolErr := rt.ownedPool.Close(); poolErr != nil && err == nil {
			err = poolErr
		}
	}
	return
}

func (rt *Runtime) shutdownQueued() int {
	n := 0
	for {
		rt.remote.Drain(wake)
		shut := rt.local.Shutdown()
		if shut == 0 {
			return n
		}
		n += shut
	}
}
