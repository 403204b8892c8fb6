package scheduler

import (
	"github.com/brickingsoft/solo/pkg/task"
)

// Local
// schedules woken tasks onto the run queue of the loop that owns them.
type Local struct {
	queue *TaskQueue
}

func NewLocal(capacity int) *Local {
	return &Local{queue: NewTaskQueue(capacity)}
}

func (l *Local) Schedule(t *task.Task) {
	l.queue.Push(t)
}

func (l *Local) Queue() *TaskQueue {
	return l.queue
}

// Shutdown
// cancels every queued task and returns how many there were.
func (l *Local) Shutdown() (n int) {
	for {
		t, ok := l.queue.Pop()
		if !ok {
			return
		}
		t.Shutdown()
		n++
	}
}
