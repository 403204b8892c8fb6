package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fifo struct {
	tasks []*Task
}

func (q *fifo) Schedule(t *Task) {
	q.tasks = append(q.tasks, t)
}

func (q *fifo) pop() *Task {
	if len(q.tasks) == 0 {
		return nil
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	return t
}

func (q *fifo) drain() {
	for t := q.pop(); t != nil; t = q.pop() {
		t.Run()
	}
}

// parked returns pending until released through the stored waker.
type parked struct {
	waker  Waker
	open   bool
	polls  int
	value  int
	drops  int
	wakeIn bool
}

func (p *parked) Poll(cx *Context) Poll[int] {
	p.polls++
	if p.open {
		return Ready(p.value)
	}
	if p.waker != nil {
		p.waker.Drop()
	}
	p.waker = cx.Waker().Clone()
	if p.wakeIn {
		p.wakeIn = false
		cx.Waker().WakeByRef()
	}
	return Pending[int]()
}

func (p *parked) Drop() {
	p.drops++
	if p.waker != nil {
		w := p.waker
		p.waker = nil
		w.Drop()
	}
}

func (p *parked) release() {
	p.open = true
	w := p.waker
	p.waker = nil
	w.Wake()
}

func TestTask_RunToCompletion(t *testing.T) {
	q := &fifo{}
	runnable, join := New[int](ReadyFuture(7), q, 1)
	runnable.Run()

	out, ready := join.Poll(NewContext(NoopWaker())).Value()
	require.True(t, ready)
	assert.Equal(t, 7, out.Value)
	assert.NoError(t, out.Err)
	assert.True(t, runnable.Released())
	assert.Panics(t, func() { join.Poll(NewContext(NoopWaker())) })
}

func TestTask_WakeReschedulesOnce(t *testing.T) {
	q := &fifo{}
	fut := &parked{value: 3}
	runnable, join := New[int](fut, q, 1)
	runnable.Run()
	assert.Empty(t, q.tasks)
	assert.Equal(t, uint64(2), runnable.State().Load().RefCount())

	fut.waker.WakeByRef()
	fut.waker.WakeByRef()
	assert.Len(t, q.tasks, 1)

	fut.open = true
	q.drain()
	assert.Equal(t, 2, fut.polls)
	assert.Equal(t, 1, fut.drops)

	assert.Equal(t, uint64(1), runnable.State().Load().RefCount())

	out, ready := join.Poll(NewContext(NoopWaker())).Value()
	require.True(t, ready)
	assert.Equal(t, 3, out.Value)
	assert.True(t, runnable.Released())
}

func TestTask_WakeDuringRun(t *testing.T) {
	q := &fifo{}
	fut := &parked{value: 1, wakeIn: true}
	runnable, join := New[int](fut, q, 1)
	runnable.Run()
	require.Len(t, q.tasks, 1)

	fut.open = true
	q.drain()
	assert.Equal(t, 2, fut.polls)
	out, ready := join.Poll(NewContext(NoopWaker())).Value()
	require.True(t, ready)
	assert.Equal(t, 1, out.Value)
	assert.True(t, runnable.Released())
}

func TestTask_JoinWaker(t *testing.T) {
	q := &fifo{}
	fut := &parked{value: 9}
	runnable, join := New[int](fut, q, 1)

	joined := 0
	cx := NewContext(WakerFunc(func() { joined++ }))
	assert.True(t, join.Poll(cx).IsPending())
	assert.True(t, join.Poll(cx).IsPending())
	assert.True(t, runnable.State().Load().HasJoinWaker())

	runnable.Run()
	fut.release()
	q.drain()
	assert.Equal(t, 1, joined)

	out, ready := join.Poll(cx).Value()
	require.True(t, ready)
	assert.Equal(t, 9, out.Value)
	assert.True(t, runnable.Released())
}

func TestTask_DetachBeforeRun(t *testing.T) {
	q := &fifo{}
	fut := &parked{value: 1, open: true}
	runnable, join := New[int](fut, q, 1)
	join.Detach()
	join.Detach()
	assert.False(t, runnable.State().Load().IsJoinInterested())
	runnable.Run()
	assert.True(t, runnable.Released())
}

func TestTask_DetachAfterComplete(t *testing.T) {
	q := &fifo{}
	runnable, join := New[*parked](ReadyFuture(&parked{}), q, 1)
	runnable.Run()
	assert.False(t, runnable.Released())
	out := runnable.header.stage.(*core[*parked]).output.Value
	join.Detach()
	assert.True(t, runnable.Released())
	assert.Equal(t, 1, out.drops)
}

func TestTask_DetachAfterCompleteDropsResultValue(t *testing.T) {
	q := &fifo{}
	held := &parked{}
	runnable, join := New[Result[*parked]](ReadyFuture(Result[*parked]{Value: held}), q, 1)
	runnable.Run()
	join.Detach()
	assert.True(t, runnable.Released())
	assert.Equal(t, 1, held.drops)
}

func TestResult_Drop(t *testing.T) {
	held := &parked{}
	Result[*parked]{Value: held}.Drop()
	assert.Equal(t, 1, held.drops)

	assert.NotPanics(t, func() { Result[int]{Value: 1}.Drop() })
}

func TestTask_DetachWhilePending(t *testing.T) {
	q := &fifo{}
	fut := &parked{value: 5}
	runnable, join := New[int](fut, q, 1)
	runnable.Run()
	join.Detach()
	assert.False(t, runnable.Released())

	fut.release()
	q.drain()
	assert.True(t, runnable.Released())
	assert.Equal(t, 1, fut.drops)
}

func TestTask_Shutdown(t *testing.T) {
	q := &fifo{}
	fut := &parked{value: 5}
	runnable, join := New[int](fut, q, 1)
	runnable.Shutdown()
	assert.Equal(t, 1, fut.drops)

	out, ready := join.Poll(NewContext(NoopWaker())).Value()
	require.True(t, ready)
	assert.ErrorIs(t, out.Err, ErrCanceled)
	assert.True(t, IsCanceled(out.Err))
	assert.True(t, runnable.Released())
}

func TestTask_DeallocOnce(t *testing.T) {
	q := &fifo{}
	runnable, join := New[int](ReadyFuture(1), q, 1)
	runnable.Run()
	join.Detach()
	require.True(t, runnable.Released())
	assert.Panics(t, func() { runnable.dealloc() })
}

func TestTask_OwnedWakerSingleUse(t *testing.T) {
	q := &fifo{}
	fut := &parked{value: 2}
	runnable, join := New[int](fut, q, 1)
	runnable.Run()
	extra := runnable.Waker()
	assert.Equal(t, uint64(3), runnable.State().Load().RefCount())
	extra.Drop()
	extra.Drop()
	extra.Wake()
	assert.Equal(t, uint64(2), runnable.State().Load().RefCount())
	assert.Empty(t, q.tasks)
	join.Detach()
	fut.release()
	q.drain()
	assert.True(t, runnable.Released())
}
