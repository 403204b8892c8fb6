package task

// JoinHandle
// the caller side of a spawned task. Poll it for the output or Detach it.
// A handle that returned ready has already released its reference.
type JoinHandle[T any] struct {
	task *Task
	core *core[T]
}

func (h *JoinHandle[T]) Poll(cx *Context) Poll[Result[T]] {
	if h.task == nil {
		panic("task: JoinHandle polled after completion")
	}
	if !h.canReadOutput(cx.Waker()) {
		return Pending[Result[T]]()
	}
	out := h.core.takeOutput()
	h.release()
	return Ready(out)
}

func (h *JoinHandle[T]) canReadOutput(waker Waker) bool {
	state := &h.task.header.state
	snapshot := state.Load()
	if snapshot.IsComplete() {
		return true
	}
	if snapshot.HasJoinWaker() {
		if _, ok := state.UnsetWaker(); !ok {
			return true
		}
		if old := h.task.header.joinWaker; old != nil {
			h.task.header.joinWaker = nil
			old.Drop()
		}
	}
	return !h.setJoinWaker(waker.Clone())
}

func (h *JoinHandle[T]) setJoinWaker(waker Waker) bool {
	h.task.header.joinWaker = waker
	if _, ok := h.task.header.state.SetJoinWaker(); !ok {
		h.task.header.joinWaker = nil
		waker.Drop()
		return false
	}
	return true
}

// IsFinished
// reports whether the task completed. False once the handle is detached or joined.
func (h *JoinHandle[T]) IsFinished() bool {
	return h.task != nil && h.task.header.state.Load().IsComplete()
}

// Detach
// drops interest in the output. The task keeps running. Never leaks and is idempotent.
func (h *JoinHandle[T]) Detach() {
	if h.task == nil {
		return
	}
	if h.task.header.state.DropJoinHandleFast() {
		h.task = nil
		return
	}
	if _, ok := h.task.header.state.UnsetJoinInterested(); !ok {
		h.core.dropFutureOrOutput()
	}
	h.release()
}

// Drop
// same as Detach, so a join handle nested in a dropped future is released too.
func (h *JoinHandle[T]) Drop() {
	h.Detach()
}

func (h *JoinHandle[T]) release() {
	t := h.task
	h.task = nil
	t.dropRef()
}
