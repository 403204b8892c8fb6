//go:build linux

package solo_test

import (
	"sync/atomic"
	"testing"

	"github.com/brickingsoft/rxp"
	"github.com/brickingsoft/solo"
	"github.com/brickingsoft/solo/pkg/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSpawnBlocking_ExecuteLocal(t *testing.T) {
	rt := newRuntime(t, solo.WithBlockingStrategy(solo.BlockingExecuteLocal))
	h := rt.Handle()

	tid := solo.BlockOn(rt, task.FutureFunc[[2]int](func(cx *task.Context) task.Poll[[2]int] {
		fut := solo.SpawnBlocking(h, unix.Gettid)
		r, ok := fut.Poll(cx).Value()
		require.True(t, ok)
		require.NoError(t, r.Err)
		return task.Ready([2]int{unix.Gettid(), r.Value})
	}))
	assert.Equal(t, tid[0], tid[1])
}

func TestSpawnBlocking_PanicWithoutPool(t *testing.T) {
	rt := newRuntime(t)
	assert.PanicsWithValue(t, "solo: SpawnBlocking without a thread pool", func() {
		solo.SpawnBlocking(rt.Handle(), func() int { return 1 })
	})
}

func newThreadPool(t *testing.T, maxGoroutines int) *solo.DefaultThreadPool {
	t.Helper()
	pool, err := solo.NewDefaultThreadPool(maxGoroutines)
	require.NoError(t, err)
	return pool
}

func TestSpawnBlocking_DefaultThreadPool(t *testing.T) {
	pool := newThreadPool(t, 2)
	t.Cleanup(func() { assert.NoError(t, pool.Close()) })
	rt := newRuntime(t, solo.WithThreadPool(pool))
	h := rt.Handle()

	var calls atomic.Int32
	futs := make([]task.Future[task.Result[int]], 0, 8)
	done, sum := 0, 0
	got := solo.BlockOn(rt, task.FutureFunc[int](func(cx *task.Context) task.Poll[int] {
		if len(futs) == 0 {
			for i := 1; i <= 8; i++ {
				futs = append(futs, solo.SpawnBlocking(h, func() int {
					calls.Add(1)
					return i
				}))
			}
		}
		// completed futures are not polled again
		for done < len(futs) {
			r, ok := futs[done].Poll(cx).Value()
			if !ok {
				return task.Pending[int]()
			}
			require.NoError(t, r.Err)
			sum += r.Value
			done++
		}
		return task.Ready(sum)
	}))
	assert.Equal(t, 36, got)
	assert.Equal(t, int32(8), calls.Load())
}

func TestNewDefaultThreadPool_InvalidOption(t *testing.T) {
	pool, err := solo.NewDefaultThreadPool(1, rxp.WithProcs(nil))
	assert.Error(t, err)
	assert.Nil(t, pool)
}

func TestSpawnBlocking_ClosedPool(t *testing.T) {
	pool := newThreadPool(t, 1)
	require.NoError(t, pool.Close())
	rt := newRuntime(t, solo.WithThreadPool(pool))

	ran := false
	fut := solo.SpawnBlocking(rt.Handle(), func() int {
		ran = true
		return 1
	})
	r, ok := fut.Poll(task.NewContext(task.NoopWaker())).Value()
	require.True(t, ok)
	assert.True(t, solo.IsCanceled(r.Err))
	assert.False(t, ran)
}

func TestBlockingTask_RunOnce(t *testing.T) {
	var tasks []*solo.BlockingTask
	pool := poolFunc(func(bt *solo.BlockingTask) { tasks = append(tasks, bt) })
	rt := newRuntime(t, solo.WithThreadPool(pool))

	calls := 0
	fut := solo.SpawnBlocking(rt.Handle(), func() int {
		calls++
		return 4
	})
	require.Len(t, tasks, 1)
	tasks[0].Run()
	tasks[0].Run()
	tasks[0].Drop()
	assert.Equal(t, 1, calls)

	r, ok := fut.Poll(task.NewContext(task.NoopWaker())).Value()
	require.True(t, ok)
	assert.Equal(t, 4, r.Value)
}

type poolFunc func(bt *solo.BlockingTask)

func (fn poolFunc) ScheduleTask(bt *solo.BlockingTask) {
	fn(bt)
}
