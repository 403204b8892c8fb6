package scheduler

import (
	"github.com/brickingsoft/solo/pkg/task"
)

const minQueueCapacity = 64

// NewTaskQueue
// creates a queue able to hold n tasks before growing. n is rounded up to a power of two.
func NewTaskQueue(n int) *TaskQueue {
	if n < minQueueCapacity {
		n = minQueueCapacity
	}
	size := 1
	for size < n {
		size <<= 1
	}
	return &TaskQueue{
		buf: make([]*task.Task, size),
	}
}

// TaskQueue
// unbounded FIFO of runnable tasks. Not safe for concurrent use, it belongs to the loop thread.
type TaskQueue struct {
	buf  []*task.Task
	head int
	len  int
}

func (q *TaskQueue) Push(t *task.Task) {
	if q.buf == nil {
		q.buf = make([]*task.Task, minQueueCapacity)
	}
	if q.len == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.len)&(len(q.buf)-1)] = t
	q.len++
}

func (q *TaskQueue) Pop() (*task.Task, bool) {
	if q.len == 0 {
		return nil, false
	}
	t := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) & (len(q.buf) - 1)
	q.len--
	return t, true
}

func (q *TaskQueue) Len() int {
	return q.len
}

func (q *TaskQueue) IsEmpty() bool {
	return q.len == 0
}

func (q *TaskQueue) Cap() int {
	return len(q.buf)
}

func (q *TaskQueue) grow() {
	buf := make([]*task.Task, len(q.buf)<<1)
	n := copy(buf, q.buf[q.head:])
	copy(buf[n:], q.buf[:q.head])
	q.buf = buf
	q.head = 0
}
