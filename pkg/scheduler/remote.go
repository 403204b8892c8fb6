package scheduler

import (
	"sync"

	"github.com/brickingsoft/solo/pkg/task"
)

// Remote
// inbox for wakes coming from goroutines other than the loop.
// The loop drains it and fires the wakers on its own thread.
type Remote struct {
	mu       sync.Mutex
	wakers   []task.Waker
	notified bool
	parked   bool
	unpark   func()
}

// NewRemote
// unpark is called, outside the lock, when a push lands while the loop is parked.
func NewRemote(unpark func()) *Remote {
	return &Remote{unpark: unpark}
}

func (r *Remote) Push(w task.Waker) {
	r.mu.Lock()
	r.wakers = append(r.wakers, w)
	parked := r.parked
	r.parked = false
	r.mu.Unlock()
	if parked && r.unpark != nil {
		r.unpark()
	}
}

// Notify
// wakes a parked loop without handing it a waker, for state it checks on its own.
func (r *Remote) Notify() {
	r.mu.Lock()
	r.notified = true
	parked := r.parked
	r.parked = false
	r.mu.Unlock()
	if parked && r.unpark != nil {
		r.unpark()
	}
}

// Drain
// hands every pending waker to fn in push order.
func (r *Remote) Drain(fn func(w task.Waker)) int {
	r.mu.Lock()
	wakers := r.wakers
	r.wakers = nil
	r.notified = false
	r.parked = false
	r.mu.Unlock()
	for _, w := range wakers {
		fn(w)
	}
	return len(wakers)
}

// Park
// marks the loop as about to block. False when wakers or a notify are already
// pending, in which case the loop should drain instead of parking.
func (r *Remote) Park() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.wakers) > 0 || r.notified {
		r.notified = false
		return false
	}
	r.parked = true
	return true
}

// Unparked
// clears the parked mark once the loop is running again.
func (r *Remote) Unparked() {
	r.mu.Lock()
	r.parked = false
	r.mu.Unlock()
}

func (r *Remote) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.wakers)
}

// Wrap
// a waker safe to use from any goroutine. Wakes are forwarded through the inbox.
func (r *Remote) Wrap(w task.Waker) task.Waker {
	return &remoteWaker{remote: r, inner: w}
}

type remoteWaker struct {
	remote *Remote
	inner  task.Waker
}

func (w *remoteWaker) Wake() {
	w.remote.Push(w.inner)
}

func (w *remoteWaker) WakeByRef() {
	w.remote.Push(w.inner.Clone())
}

func (w *remoteWaker) Clone() task.Waker {
	return w.remote.Wrap(w.inner.Clone())
}

func (w *remoteWaker) Drop() {
	w.inner.Drop()
}
